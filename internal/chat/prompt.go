package chat

import (
	"os"
	"strings"

	"github.com/knitec/iq-platform/pkg/logging"
)

// DefaultSystemPrompt keeps the bot usable when the instructions file is
// missing or empty.
const DefaultSystemPrompt = "You are Knitec IQ assistant."

// DefaultGreeting opens every fresh chat session. It is shown to the user
// but never written to the transcript.
const DefaultGreeting = "I'm Knitec IQ, a chatbot that will guide you through " +
	"the KniTec Installation Questionnaire one question at a time and then " +
	"summarize your answers."

// LoadSystemPrompt reads the questionnaire instructions from path, falling
// back to DefaultSystemPrompt when the file is unavailable.
func LoadSystemPrompt(path string, logger *logging.Logger) string {
	if logger == nil {
		logger = logging.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("system prompt file unavailable, using fallback", "path", path, "error", err)
		return DefaultSystemPrompt
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		logger.Warn("system prompt file is empty, using fallback", "path", path)
		return DefaultSystemPrompt
	}
	return text
}
