package routing

import "testing"

func newTestClassifier(t *testing.T) *KeywordClassifier {
	t.Helper()
	return NewKeywordClassifier("archivist")
}

func TestGreetingIsCasual(t *testing.T) {
	c := newTestClassifier(t)

	for _, text := range []string{"hi", "Hi", "HI!", "  hello  ", "Hey!!", "good morning"} {
		if !c.IsCasual(text) {
			t.Fatalf("expected %q to be casual", text)
		}
	}
	if got := c.CasualResponse("hi"); got != "Hello! How can I help?" {
		t.Fatalf("unexpected greeting reply: %q", got)
	}
}

func TestThanksGetsItsOwnReply(t *testing.T) {
	c := newTestClassifier(t)

	if !c.IsCasual("Thanks!") {
		t.Fatal("expected 'Thanks!' to be casual")
	}
	if got := c.CasualResponse("Thanks!"); got != "You're welcome!" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestSubstanceIsNotCasual(t *testing.T) {
	c := newTestClassifier(t)

	for _, text := range []string{
		"hi, can you remind me about the dentist",
		"remind me to call mom tomorrow",
		"what did I write last week",
		"",
		"   ",
	} {
		if c.IsCasual(text) {
			t.Fatalf("expected %q not to be casual", text)
		}
	}
}

func TestRouteByKeyword(t *testing.T) {
	c := newTestClassifier(t)

	cases := []struct {
		text  string
		agent string
	}{
		{"remind me to call mom tomorrow", "scheduler"},
		{"Schedule a meeting with Dana", "scheduler"},
		{"I want to journal about today", "journal"},
		{"I felt really good this morning", "journal"},
		{"what did I save about go generics", "archivist"},
		{"", "archivist"},
	}
	for _, tc := range cases {
		if got := c.Route(tc.text); got != tc.agent {
			t.Fatalf("Route(%q) = %q, want %q", tc.text, got, tc.agent)
		}
	}
}

func TestRouteMatchesWholeWordsOnly(t *testing.T) {
	c := newTestClassifier(t)

	// "reminder" is a trigger but "remainder" must not be
	if got := c.Route("what is the remainder of 7/3"); got != "archivist" {
		t.Fatalf("substring must not trigger routing, got %q", got)
	}
}

func TestDeterministic(t *testing.T) {
	c := newTestClassifier(t)

	for _, text := range []string{"hi", "remind me later", "random text", "how are you?"} {
		if c.IsCasual(text) != c.IsCasual(text) {
			t.Fatalf("IsCasual(%q) not stable", text)
		}
		if c.CasualResponse(text) != c.CasualResponse(text) {
			t.Fatalf("CasualResponse(%q) not stable", text)
		}
		if c.Route(text) != c.Route(text) {
			t.Fatalf("Route(%q) not stable", text)
		}
	}
}

func TestCasualResponseIsTotal(t *testing.T) {
	c := newTestClassifier(t)

	// Even text that is not casual gets a reply, never an empty string.
	if got := c.CasualResponse("launch the missiles"); got == "" {
		t.Fatal("CasualResponse must never return empty")
	}
}

func TestHostileInputDoesNotPanic(t *testing.T) {
	c := newTestClassifier(t)

	inputs := []string{
		"",
		"\x00\x01\x02",
		string(make([]byte, 100000)),
		"🙂🙂🙂",
		"ПРИВЕТ",
	}
	for _, text := range inputs {
		c.IsCasual(text)
		c.CasualResponse(text)
		c.Route(text)
	}
}
