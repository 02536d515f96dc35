package bot

// Keyboard is a reply keyboard as rows of button labels.
type Keyboard [][]string

func initialKeyboard() Keyboard {
	return Keyboard{{CommandStart}}
}

func unauthorizedKeyboard() Keyboard {
	return Keyboard{{CommandStart, CommandAuth}}
}

func mainKeyboard() Keyboard {
	return Keyboard{{ButtonCreateResume, ButtonEditResume}}
}
