package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// Conversations start with this prefix and are renamed exactly once, on
	// the first user message.
	DefaultTitlePrefix = "New Chat"

	// Title and evidence display budgets (runes). Longer text is cut and
	// suffixed with TruncationMarker.
	TitleMaxLen      = 30
	EvidenceMaxLen   = 300
	TruncationMarker = "..."
)

// MedicalSystemPrompt is the fixed instruction sent with every completion. It
// pins the assistant's domain, tone and the mandatory safety caveats.
const MedicalSystemPrompt = `You are MediBot, a medical information assistant.
You answer general health questions using the reference passages provided with each question.

Guidelines:
- Be empathetic and explain in plain language a patient can understand.
- Base your answer on the reference passages; if they do not cover the question, say so honestly.
- You are NOT a diagnostic tool. Never diagnose, and always recommend consulting a qualified healthcare professional for personal medical concerns.
- Express uncertainty when you are unsure rather than guessing.`

// PipelineErrorMessage is appended as the assistant reply when any pipeline
// stage fails. The session stays usable afterwards.
const PipelineErrorMessage = "I'm sorry, I ran into a problem while answering your question. " +
	"Please try rephrasing it, check your connection, or try again in a moment."
