package bot

const (
	txtWelcome        = "Добро пожаловать! Выбери действие:"
	txtMainMenu       = "Главное меню:"
	txtVerified       = "✅ Подписка подтверждена! Добро пожаловать!"
	txtNotSubscribed  = "❌ Подписка не обнаружена. Подпишись на все каналы и попробуй снова."
	txtJoinHeader     = "❗️ Чтобы пользоваться ботом, подпишись на все наши каналы:\n📩 Если бот не работает — обратись к админу: %s\n"
	txtJoinFooter     = "\n\n⬇️ Кнопки ниже для перехода"
	txtAdminOnly      = "⛔ Команда только для админа."
	txtAddMovieFormat = "Формат:\n" +
		"Название | Жанр | Год | Ссылка | Описание | Постер (URL)\n" +
		"Каждый фильм — с новой строки.\n" +
		"Если постера нет — оставь поле пустым."
	txtNoGenres       = "Жанры пока не добавлены."
	txtPickGenre      = "Выбери жанр:"
	txtAskTitle       = "Введи название фильма:"
	txtNoTop          = "Пока нет популярных фильмов."
	txtNoGenreMovies  = "Фильмы этого жанра пока не добавлены."
	txtNotFound       = "Фильм не найден. Напиши админу %s, чтобы мы его добавили."
	txtFailure        = "⚠️ Что-то пошло не так, попробуй позже."
	txtDelUsage       = "Формат: /delmovie Название | Год"
	txtDeleted        = "🗑 Удалено фильмов: %d"
	txtGenreUsage     = "Формат: /addgenre Жанр"
	txtGenreAdded     = "✅ Жанр «%s» в списке."
	txtFindUsage      = "Формат: /find Название"
	txtFindDisabled   = "Поиск по внешней базе не настроен."
	txtFindFailed     = "Внешняя база сейчас недоступна."
	txtFindEmpty      = "Ничего не найдено."
	txtFindHeader     = "Заполни ссылку и отправь строки обратно:\n\n"
)
