package service

// texts 是按语言组织的用户可见文案目录。键为语言代码（uz/ru/en），
// 未知语言回退到 uz。
var texts = map[string]map[string]string{
	"uz": {
		"welcome":               "Assalomu alaykum! 📄 Hujjat yaratish botiga xush kelibsiz.\nTilni tanlang:",
		"subscription_required": "Botdan foydalanish uchun kanalimizga obuna bo'ling:",
		"not_subscribed":        "❌ Siz hali kanalga obuna bo'lmagansiz. Obuna bo'lib, qayta tekshiring.",
		"check_subscription":    "✅ Tekshirish",
		"select_type":           "Qanday hujjat yaratmoqchisiz?",
		"type_presentation":     "📊 Taqdimot",
		"type_report":           "📄 Referat",
		"type_coursework":       "📚 Kurs ishi",
		"enter_topic":           "Hujjat mavzusini kiriting:",
		"enter_pages":           "Sahifalar sonini kiriting (3 dan 50 gacha):",
		"invalid_pages":         "❌ Noto'g'ri qiymat. 3 dan 50 gacha son kiriting:",
		"select_design":         "Dizaynni tanlang:",
		"confirm_data":          "📋 Ma'lumotlarni tekshiring:\n\nTuri: %s\nMavzu: %s\nSahifalar: %d",
		"confirm_design":        "\nDizayn: %s",
		"confirm_prompt":        "\n\nTasdiqlaysizmi?",
		"confirm_yes":           "✅ Ha",
		"confirm_no":            "❌ Yo'q",
		"generating":            "⏳ Hujjat tayyorlanmoqda... Bu bir necha daqiqa vaqt olishi mumkin.",
		"success":               "✅ Hujjatingiz tayyor! Qolgan kunlik limit: %d/%d.",
		"error":                 "❌ Xatolik yuz berdi. Iltimos, qayta urinib ko'ring.",
		"limit_reached":         "⚠️ Bugungi limit tugadi (%d/%d). Ertaga qayta urinib ko'ring.\n\nDo'stlaringizni taklif qilib, kunlik limitni oshiring:\n%s",
		"referral_info":         "👥 Siz %d ta do'stingizni taklif qilgansiz.\nKunlik limitingiz: %d ta.\n\nTaklif havolangiz:\n%s",
		"referral_success":      "🎉 Sizning havolangiz orqali yangi foydalanuvchi qo'shildi! Kunlik limitingiz 1 taga oshdi.",
		"restart":               "Boshidan boshlash uchun tilni tanlang:",
	},
	"ru": {
		"welcome":               "Здравствуйте! 📄 Добро пожаловать в бот для создания документов.\nВыберите язык:",
		"subscription_required": "Для использования бота подпишитесь на наш канал:",
		"not_subscribed":        "❌ Вы ещё не подписаны на канал. Подпишитесь и проверьте снова.",
		"check_subscription":    "✅ Проверить",
		"select_type":           "Какой документ вы хотите создать?",
		"type_presentation":     "📊 Презентация",
		"type_report":           "📄 Реферат",
		"type_coursework":       "📚 Курсовая работа",
		"enter_topic":           "Введите тему документа:",
		"enter_pages":           "Введите количество страниц (от 3 до 50):",
		"invalid_pages":         "❌ Неверное значение. Введите число от 3 до 50:",
		"select_design":         "Выберите дизайн:",
		"confirm_data":          "📋 Проверьте данные:\n\nТип: %s\nТема: %s\nСтраниц: %d",
		"confirm_design":        "\nДизайн: %s",
		"confirm_prompt":        "\n\nПодтверждаете?",
		"confirm_yes":           "✅ Да",
		"confirm_no":            "❌ Нет",
		"generating":            "⏳ Документ готовится... Это может занять несколько минут.",
		"success":               "✅ Ваш документ готов! Остаток дневного лимита: %d/%d.",
		"error":                 "❌ Произошла ошибка. Пожалуйста, попробуйте снова.",
		"limit_reached":         "⚠️ Дневной лимит исчерпан (%d/%d). Попробуйте завтра.\n\nПриглашайте друзей и увеличьте дневной лимит:\n%s",
		"referral_info":         "👥 Вы пригласили %d друзей.\nВаш дневной лимит: %d.\n\nВаша ссылка для приглашения:\n%s",
		"referral_success":      "🎉 По вашей ссылке присоединился новый пользователь! Дневной лимит увеличен на 1.",
		"restart":               "Чтобы начать заново, выберите язык:",
	},
	"en": {
		"welcome":               "Hello! 📄 Welcome to the document generation bot.\nChoose a language:",
		"subscription_required": "Please subscribe to our channel to use the bot:",
		"not_subscribed":        "❌ You are not subscribed yet. Subscribe and check again.",
		"check_subscription":    "✅ Check",
		"select_type":           "What kind of document do you want to create?",
		"type_presentation":     "📊 Presentation",
		"type_report":           "📄 Report",
		"type_coursework":       "📚 Coursework",
		"enter_topic":           "Enter the document topic:",
		"enter_pages":           "Enter the number of pages (3 to 50):",
		"invalid_pages":         "❌ Invalid value. Enter a number from 3 to 50:",
		"select_design":         "Choose a design:",
		"confirm_data":          "📋 Check your data:\n\nType: %s\nTopic: %s\nPages: %d",
		"confirm_design":        "\nDesign: %s",
		"confirm_prompt":        "\n\nConfirm?",
		"confirm_yes":           "✅ Yes",
		"confirm_no":            "❌ No",
		"generating":            "⏳ Your document is being prepared... This may take a few minutes.",
		"success":               "✅ Your document is ready! Remaining daily limit: %d/%d.",
		"error":                 "❌ An error occurred. Please try again.",
		"limit_reached":         "⚠️ Daily limit reached (%d/%d). Try again tomorrow.\n\nInvite friends to increase your daily limit:\n%s",
		"referral_info":         "👥 You have invited %d friends.\nYour daily limit: %d.\n\nYour invite link:\n%s",
		"referral_success":      "🎉 A new user joined via your link! Your daily limit increased by 1.",
		"restart":               "To start over, choose a language:",
	},
}

// T 返回指定语言下的文案，语言未知时回退到 uz。
func T(lang, key string) string {
	m, ok := texts[lang]
	if !ok {
		m = texts["uz"]
	}
	if s, ok := m[key]; ok {
		return s
	}
	return texts["uz"][key]
}
