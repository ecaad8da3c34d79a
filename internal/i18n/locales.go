// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n provides the static localization table for the UI chrome.
package i18n

// builtin is the default localization table. Codes are ISO-639 two-letter
// codes; each record is complete (see Strings.validate).
var builtin = map[string]Strings{
	"as": {
		Name:      "অসমীয়া (Assamese)",
		Title:     "🪼 Jelly",
		Threads:   "🧵 থ্ৰেডসমূহ",
		NewThread: "➕ নতুন থ্ৰেড",
		History:   "📚 ইতিহাস",
		Share:     "🔗 শেয়াৰ",
		Delete:    "🗑️",
		Edit:      "✏️",
		Talk:      "💬 জেলীৰ সৈতে কথা পাতক...",
		Created:   "সৃষ্টি",
	},
	"bn": {
		Name:      "বাংলা (Bengali)",
		Title:     "🪼 Jelly",
		Threads:   "🧵 থ্রেড",
		NewThread: "➕ নতুন থ্রেড",
		History:   "📚 ইতিহাস",
		Share:     "🔗 শেয়ার",
		Delete:    "🗑️",
		Edit:      "✏️",
		Talk:      "💬 জেলির সাথে কথা বলুন...",
		Created:   "তৈরি",
	},
	"de": {
		Name:      "Deutsch",
		Title:     "🪼 Jelly",
		Threads:   "🧵 Threads",
		NewThread: "➕ Neuer Thread",
		History:   "📚 Verlauf",
		Share:     "🔗 Teilen",
		Delete:    "🗑️",
		Edit:      "✏️",
		Talk:      "💬 Mit Jelly sprechen...",
		Created:   "Erstellt",
	},
	"en": {
		Name:      "English",
		Title:     "🪼 Jelly",
		Threads:   "🧵 Threads",
		NewThread: "➕ New Thread",
		History:   "📚 History",
		Share:     "🔗 Share",
		Delete:    "🗑️",
		Edit:      "✏️",
		Talk:      "💬 Talk to Jelly...",
		Created:   "Created",
	},
	"es": {
		Name:      "Español",
		Title:     "🪼 Jelly",
		Threads:   "🧵 Hilos",
		NewThread: "➕ Nuevo Hilo",
		History:   "📚 Historial",
		Share:     "🔗 Compartir",
		Delete:    "🗑️",
		Edit:      "✏️",
		Talk:      "💬 Habla con Jelly...",
		Created:   "Creado",
	},
	"fr": {
		Name:      "Français",
		Title:     "🪼 Jelly",
		Threads:   "🧵 Fils",
		NewThread: "➕ Nouveau Fil",
		History:   "📚 Historique",
		Share:     "🔗 Partager",
		Delete:    "🗑️",
		Edit:      "✏️",
		Talk:      "💬 Parlez à Jelly...",
		Created:   "Créé",
	},
	"hi": {
		Name:      "हिंदी (Hindi)",
		Title:     "🪼 Jelly",
		Threads:   "🧵 थ्रेड्स",
		NewThread: "➕ नया थ्रेड",
		History:   "📚 इतिहास",
		Share:     "🔗 शेयर",
		Delete:    "🗑️",
		Edit:      "✏️",
		Talk:      "💬 जेली से बात करें...",
		Created:   "बनाया",
	},
	"ja": {
		Name:      "日本語",
		Title:     "🪼 Jelly",
		Threads:   "🧵 スレッド",
		NewThread: "➕ 新規スレッド",
		History:   "📚 履歴",
		Share:     "🔗 共有",
		Delete:    "🗑️",
		Edit:      "✏️",
		Talk:      "💬 ジェリーと話す...",
		Created:   "作成",
	},
	"zh": {
		Name:      "中文",
		Title:     "🪼 Jelly",
		Threads:   "🧵 线程",
		NewThread: "➕ 新线程",
		History:   "📚 历史",
		Share:     "🔗 分享",
		Delete:    "🗑️",
		Edit:      "✏️",
		Talk:      "💬 与Jelly聊天...",
		Created:   "创建",
	},
}

// DefaultLanguage is the language selected when none has been chosen yet.
const DefaultLanguage = "en"
