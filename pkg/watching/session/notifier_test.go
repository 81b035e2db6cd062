package session

import (
	"testing"
)

func TestOnceNotifier(t *testing.T) {
	var messages []string
	notifier := newOnceNotifier(FailureNotifierFunc(func(message string) {
		messages = append(messages, message)
	}))
	if !notifier.notify("startup", "first") {
		t.Error("first notification suppressed")
	}
	if notifier.notify("startup", "second") {
		t.Error("repeated notification forwarded")
	}
	if !notifier.notify("give up", "third") {
		t.Error("notification with distinct cause suppressed")
	}
	notifier.acknowledge("startup")
	if !notifier.notify("startup", "fourth") {
		t.Error("notification after acknowledgement suppressed")
	}
	if len(messages) != 3 {
		t.Error("unexpected messages:", messages)
	}
}

func TestOnceNotifierWithoutTarget(t *testing.T) {
	notifier := newOnceNotifier(nil)
	if !notifier.notify("startup", "message") {
		t.Error("notification suppressed")
	}
}
