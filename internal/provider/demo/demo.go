// Package demo produces placeholder replies for categories with no
// configured credential, so the chat stays usable out of the box.
package demo

import (
	"fmt"

	"github.com/polychat/chat-backend/internal/types"
)

// template holds the per-category placeholder texts for one language.
// Text and coding templates take the user message as a format argument.
type template struct {
	text   string
	image  string
	voice  string
	coding string
}

var templates = map[types.Language]template{
	types.LangEnglish: {
		text:   "Demo mode: you said %q. Add a text provider key in settings to get real answers.",
		image:  "Demo mode: image generation is not configured. Add an image provider key in settings to create pictures.",
		voice:  "Demo mode: voice is not configured. Add a voice provider key in settings to use audio.",
		coding: "Demo mode: you asked about %q. Add a coding provider key in settings to get real code help.",
	},
	types.LangSpanish: {
		text:   "Modo demo: dijiste %q. Añade una clave de proveedor de texto en los ajustes para obtener respuestas reales.",
		image:  "Modo demo: la generación de imágenes no está configurada. Añade una clave de proveedor de imágenes en los ajustes.",
		voice:  "Modo demo: la voz no está configurada. Añade una clave de proveedor de voz en los ajustes.",
		coding: "Modo demo: preguntaste sobre %q. Añade una clave de proveedor de código en los ajustes.",
	},
	types.LangFrench: {
		text:   "Mode démo : vous avez dit %q. Ajoutez une clé de fournisseur de texte dans les réglages pour obtenir de vraies réponses.",
		image:  "Mode démo : la génération d'images n'est pas configurée. Ajoutez une clé de fournisseur d'images dans les réglages.",
		voice:  "Mode démo : la voix n'est pas configurée. Ajoutez une clé de fournisseur vocal dans les réglages.",
		coding: "Mode démo : vous avez demandé %q. Ajoutez une clé de fournisseur de code dans les réglages.",
	},
	types.LangPortuguese: {
		text:   "Modo demo: você disse %q. Adicione uma chave de provedor de texto nas configurações para obter respostas reais.",
		image:  "Modo demo: a geração de imagens não está configurada. Adicione uma chave de provedor de imagens nas configurações.",
		voice:  "Modo demo: a voz não está configurada. Adicione uma chave de provedor de voz nas configurações.",
		coding: "Modo demo: você perguntou sobre %q. Adicione uma chave de provedor de código nas configurações.",
	},
}

// Respond returns the placeholder reply for (category, language).
// Unrecognized languages fall back to English. Pure; never fails.
func Respond(lang types.Language, category types.Category, userMessage string) string {
	tpl, ok := templates[lang]
	if !ok {
		tpl = templates[types.LangEnglish]
	}
	switch category {
	case types.CategoryImage:
		return tpl.image
	case types.CategoryVoice:
		return tpl.voice
	case types.CategoryCoding:
		return fmt.Sprintf(tpl.coding, truncate(userMessage, 80))
	default:
		return fmt.Sprintf(tpl.text, truncate(userMessage, 80))
	}
}

// truncate shortens s to max runes, never splitting a multibyte rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
