package bot

const (
	CommandStart = "/start"
	CommandAuth  = "/auth"

	ButtonCreateResume = "📝 Создать резюме"
	ButtonEditResume   = "✏️ Изменить резюме"
)

const (
	textRestart = "Бот был перезапущен. Нажмите /start, чтобы начать."

	textGreeting                = "👋 Здравствуйте, %s!\n\nЯ помогу адаптировать ваше резюме на hh.ru под конкретную вакансию."
	textGreetingNeedAuth        = "\n\nДля начала работы авторизуйтесь через hh.ru: нажмите /auth."
	textGreetingAuthInterrupted = "\n\nПохоже, авторизация не была завершена. Нажмите /auth, чтобы получить новую ссылку."

	textNeedAuth     = "Для продолжения работы необходимо авторизоваться. Нажмите /auth."
	textAuthReminder = "🔒 Для продолжения работы необходимо завершить авторизацию.\n\nПерейдите по ссылке, которая была отправлена ранее, и подтвердите доступ к вашему аккаунту hh.ru."

	textAuthIntro       = "Для авторизации перейдите по ссылке и подтвердите доступ к аккаунту hh.ru:\n\n"
	textAuthServerError = "Не удалось запустить авторизацию. Попробуйте позже."
	textAuthSuccess     = "✅ Авторизация прошла успешно!\n\n"
	textAuthError       = "❌ Не удалось завершить авторизацию. Нажмите /auth, чтобы попробовать снова."
	textAuthExpired     = "Доступ к hh.ru истёк. Нажмите /auth, чтобы авторизоваться заново."

	textChooseAction      = "Выберите действие:"
	textDefault           = "Выберите действие с помощью кнопок ниже."
	textCreateUnavailable = "Функция создания резюме будет доступна в ближайшее время!"

	textWaitingResumeLink  = "Отправьте ссылку на резюме, которое нужно изменить, например https://hh.ru/resume/abc123"
	textInvalidResumeLink  = "Это не похоже на ссылку на резюме hh.ru. Отправьте ссылку вида https://hh.ru/resume/<id>"
	textResumeFound        = "🔎 Резюме найдено, обрабатываю..."
	textResumeParsed       = "✅ Резюме обработано. Теперь отправьте ссылку на вакансию, например https://hh.ru/vacancy/123456"
	textResumeFailed       = "Не удалось загрузить резюме. Проверьте ссылку и отправьте её ещё раз."
	textInvalidVacancyLink = "Это не похоже на ссылку на вакансию hh.ru. Отправьте ссылку вида https://hh.ru/vacancy/<id>"
	textVacancyFound       = "🔎 Вакансия найдена, обрабатываю..."
	textVacancyParsed      = "✅ Вакансия обработана."
	textVacancyFailed      = "Не удалось загрузить вакансию. Начните заново с кнопки «Изменить резюме»."
	textAnalysisStarted    = "🧠 Сравниваю резюме с вакансией..."
	textRewriteStarted     = "✍️ Переписываю резюме по результатам анализа..."
	textUpdateStarted      = "📤 Обновляю резюме на hh.ru..."
	textGapFailed          = "Произошла ошибка при анализе резюме. Попробуйте позже."
	textRewriteFailed      = "Произошла ошибка при переписывании резюме. Попробуйте позже."
	textUpdateFailed       = "Произошла ошибка при обновлении резюме на сайте."
	textResumeUpdated      = "✅ Резюме успешно обновлено!\n\nПосмотреть обновлённое резюме можно по ссылке:\n%s"

	textError = "Произошла ошибка. Пожалуйста, попробуйте позже."
)
