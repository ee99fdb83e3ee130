// ABOUTME: Canned responses used when no AI provider is configured or reachable
// ABOUTME: Keyed on conversation language and simple keyword detection

package ai

import "strings"

// errorResponse is sent when response generation fails unexpectedly.
const errorResponse = "I'm sorry, I'm having trouble processing your request right now. Please try again later."

// translateFallback is returned when translation fails.
const translateFallback = "[Translation error: Could not translate text. Please try again later.]"

// fallbackResponse picks a canned reply based on the message content and the
// conversation language. It always returns a non-empty string.
func fallbackResponse(message, language string) string {
	lower := strings.ToLower(message)

	if strings.Contains(lower, "hello") ||
		strings.Contains(lower, "hi") ||
		strings.Contains(lower, "greetings") {
		switch language {
		case "mas":
			return "Sopa! (Hello in Maasai) How can I assist you today with Maasai language?"
		case "swa":
			return "Habari! (Hello in Kiswahili) How can I assist you today with Kiswahili language?"
		case "kik":
			return "Nĩatia! (Hello in Kikuyu) How can I assist you today with Kikuyu language?"
		default:
			return "Hello! How can I assist you today?"
		}
	}

	if strings.Contains(lower, "translate") ||
		strings.Contains(lower, "how do you say") {
		switch language {
		case "mas":
			return "In Maasai, common phrases include:\n- Sopa - Hello\n- Kaa eeta? - How are you?\n- Epa - Good\n- Ashe - Thank you\n\nWould you like to learn more specific Maasai phrases?"
		case "swa":
			return "In Kiswahili, common phrases include:\n- Habari - Hello\n- Habari yako? - How are you?\n- Nzuri - Good\n- Asante - Thank you\n\nWould you like to learn more specific Kiswahili phrases?"
		case "kik":
			return "In Kikuyu, common phrases include:\n- Nĩatia - Hello\n- Ūhoro waku? - How are you?\n- Nĩ mwega - Good\n- Nĩ ngatho - Thank you\n\nWould you like to learn more specific Kikuyu phrases?"
		default:
			return "I can help you translate between various Kenyan languages. Please specify which language you'd like to translate to or from."
		}
	}

	if strings.Contains(lower, "culture") ||
		strings.Contains(lower, "tradition") ||
		strings.Contains(lower, "custom") {
		switch language {
		case "mas":
			return "Maasai culture is rich in traditions. The Maasai are known for their distinctive customs, dress, and social organization. They are semi-nomadic people located primarily in Kenya and Tanzania. Their traditional lifestyle centers around their cattle, which are their primary source of food and measure of wealth. Would you like to know more about specific aspects of Maasai culture?"
		case "swa":
			return "Swahili culture blends African, Arab, Persian, and Indian influences. It developed along the East African coast, with traditions centered around community, respect for elders, and hospitality. Would you like to know more about specific aspects of Swahili culture?"
		default:
			return "Kenya has over 40 ethnic groups, each with its own unique culture and traditions. Is there a specific Kenyan culture you'd like to learn more about?"
		}
	}

	return "I'm here to help you learn about Kenyan languages, particularly Maasai, Kiswahili, and others. You can ask me to translate phrases, teach you about cultural contexts, or provide language learning resources. What would you like to know?"
}

// fallbackInsights is returned when insight generation or parsing fails.
func fallbackInsights() *Insights {
	return &Insights{
		CulturalContext: "Cultural context information not available at the moment.",
		KeyPhrases:      []string{},
		Pronunciation:   "Pronunciation guide not available at the moment.",
	}
}

// languageName maps a language code to its display name for prompts.
func languageName(code string) string {
	switch code {
	case "mas":
		return "Maasai"
	case "swa":
		return "Kiswahili"
	case "kik":
		return "Kikuyu"
	case "luo":
		return "Luo"
	case "kam":
		return "Kamba"
	default:
		return "English"
	}
}
