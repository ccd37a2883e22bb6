package provider

import (
	"errors"
	"fmt"

	"github.com/polychat/chat-backend/internal/types"
)

// ErrUnconfigured is returned when no credential exists for the requested
// category. User-actionable; no network call is made.
var ErrUnconfigured = errors.New("no credential configured")

// ProviderError is a non-success response from a provider.
type ProviderError struct {
	Category   types.Category
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: status %d: %s", e.Category, e.StatusCode, e.Message)
}

// transportUnsupportedMessages explains, per language, why the voice category
// cannot be served without a relay. English is the fallback.
var transportUnsupportedMessages = map[types.Language]string{
	types.LangEnglish:    "Voice requests need a relay service, which is not configured. This deployment cannot reach the voice provider directly.",
	types.LangSpanish:    "Las solicitudes de voz necesitan un servicio de retransmisión, que no está configurado. Esta instalación no puede conectarse directamente con el proveedor de voz.",
	types.LangFrench:     "Les requêtes vocales nécessitent un service relais, qui n'est pas configuré. Ce déploiement ne peut pas joindre directement le fournisseur vocal.",
	types.LangPortuguese: "Pedidos de voz precisam de um serviço de retransmissão, que não está configurado. Esta instalação não consegue contactar o fornecedor de voz diretamente.",
}

// TransportUnsupportedError means the category has no viable transport in this
// deployment. Permanent and non-retryable.
type TransportUnsupportedError struct {
	Language types.Language
}

func (e *TransportUnsupportedError) Error() string {
	return "voice transport unsupported: " + e.LocalizedMessage()
}

// LocalizedMessage returns the static explanation in the error's language,
// falling back to English.
func (e *TransportUnsupportedError) LocalizedMessage() string {
	if msg, ok := transportUnsupportedMessages[e.Language]; ok {
		return msg
	}
	return transportUnsupportedMessages[types.LangEnglish]
}
