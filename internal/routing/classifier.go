// Package routing decides, without any I/O, whether a message deserves an
// immediate canned reply or which agent should handle it.
package routing

import (
	"strings"
	"unicode"
)

// Classifier is the routing capability injected into the dispatch engine.
// Implementations must be deterministic, side-effect free and safe for any
// string input: identical text always yields identical verdicts and replies.
type Classifier interface {
	// IsCasual reports whether the text is small talk answerable without a worker.
	IsCasual(text string) bool
	// CasualResponse returns the canned reply for casual text.
	CasualResponse(text string) string
	// Route returns the agent id that should handle non-casual text.
	Route(text string) string
}

// casualRule maps a group of small-talk phrases to one fixed reply.
type casualRule struct {
	reply   string
	phrases []string
}

// agentRule routes messages containing any of its trigger words to an agent.
type agentRule struct {
	agent string
	words []string
}

// defaultCasualReply answers greetings and any casual text that matched no
// specific group.
const defaultCasualReply = "Hello! How can I help?"

// KeywordClassifier classifies by exact phrase match (casual) and whole-word
// triggers (routing). Stateless after construction.
type KeywordClassifier struct {
	defaultAgent string
	casual       []casualRule
	rules        []agentRule
}

// NewKeywordClassifier builds the production rule table. Messages that match
// no routing rule go to defaultAgent.
func NewKeywordClassifier(defaultAgent string) *KeywordClassifier {
	return &KeywordClassifier{
		defaultAgent: defaultAgent,
		casual: []casualRule{
			{
				reply:   defaultCasualReply,
				phrases: []string{"hi", "hello", "hey", "hiya", "yo", "hi there", "hello there", "good morning", "good afternoon", "good evening"},
			},
			{
				reply:   "You're welcome!",
				phrases: []string{"thanks", "thank you", "thanks a lot", "thx", "ty", "cheers"},
			},
			{
				reply:   "Doing great and ready to help. What's on your mind?",
				phrases: []string{"how are you", "how is it going", "how's it going", "what's up", "whats up", "sup"},
			},
			{
				reply:   "Goodbye! Message me any time.",
				phrases: []string{"bye", "goodbye", "good night", "see you", "see ya", "cya"},
			},
		},
		rules: []agentRule{
			{
				agent: "scheduler",
				words: []string{"remind", "reminder", "reminders", "schedule", "scheduled", "meeting", "meetings", "appointment", "calendar", "tomorrow", "tonight", "deadline"},
			},
			{
				agent: "journal",
				words: []string{"journal", "journaling", "diary", "mood", "felt", "feeling", "grateful", "gratitude"},
			},
		},
	}
}

// IsCasual reports whether the normalized text exactly matches a known
// small-talk phrase. Deliberately conservative: anything longer than a
// greeting goes to an agent.
func (c *KeywordClassifier) IsCasual(text string) bool {
	_, ok := c.lookupCasual(text)
	return ok
}

// CasualResponse returns the canned reply for the text. Unmatched text gets
// the default greeting reply so the method is total.
func (c *KeywordClassifier) CasualResponse(text string) string {
	if reply, ok := c.lookupCasual(text); ok {
		return reply
	}
	return defaultCasualReply
}

// Route returns the first rule whose trigger words intersect the text's
// tokens, or the default agent.
func (c *KeywordClassifier) Route(text string) string {
	tokens := tokenize(text)
	for _, rule := range c.rules {
		for _, w := range rule.words {
			if tokens[w] {
				return rule.agent
			}
		}
	}
	return c.defaultAgent
}

func (c *KeywordClassifier) lookupCasual(text string) (string, bool) {
	norm := normalize(text)
	if norm == "" {
		return "", false
	}
	for _, rule := range c.casual {
		for _, p := range rule.phrases {
			if norm == p {
				return rule.reply, true
			}
		}
	}
	return "", false
}

// normalize lowercases, collapses whitespace and strips trailing punctuation
// so "Hi!!" and "hi" compare equal.
func normalize(text string) string {
	norm := strings.ToLower(strings.TrimSpace(text))
	norm = strings.Join(strings.Fields(norm), " ")
	return strings.TrimRight(norm, "!?.,")
}

// tokenize splits text into a set of lowercase words.
func tokenize(text string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		tokens[f] = true
	}
	return tokens
}
