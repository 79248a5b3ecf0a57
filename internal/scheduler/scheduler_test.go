package scheduler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/studytrack/internal/config"
	"github.com/example/studytrack/pkg/models"
)

type fakeSource struct {
	users   []string
	feeds   map[string][]models.Reminder
	failFor string
	listErr error
	listCtx context.Context
}

func (f *fakeSource) ListUserIDs(ctx context.Context) ([]string, error) {
	f.listCtx = ctx
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.users, f.listErr
}

func (f *fakeSource) GenerateReviewReminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	if userID == f.failFor {
		return nil, errors.New("store unavailable")
	}
	return f.feeds[userID], nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string]int
	err  error
}

func (n *recordingNotifier) SendReminders(ctx context.Context, userID string, reminders []models.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = map[string]int{}
	}
	n.sent[userID] = len(reminders)
	return n.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func reminder(id string, sev models.Severity) models.Reminder {
	return models.Reminder{Item: models.SpacedRepetitionItem{ID: id, TopicName: "topic " + id}, Severity: sev}
}

func newTestScheduler(source ReminderSource, n Notifier, hour int) *Scheduler {
	return newWindowScheduler(source, n, 8, 22, hour)
}

func newWindowScheduler(source ReminderSource, n Notifier, start, end, hour int) *Scheduler {
	s := New(source, n, config.DigestConfig{StartHour: start, EndHour: end}, time.UTC, quietLogger())
	s.clock = func() time.Time { return time.Date(2025, time.March, 10, hour, 30, 0, 0, time.UTC) }
	return s
}

func TestCheckAndSendReminders(t *testing.T) {
	source := &fakeSource{
		users: []string{"u1", "u2", "u3", "u4"},
		feeds: map[string][]models.Reminder{
			"u1": {reminder("a", models.SeverityOverdue), reminder("b", models.SeverityAtRisk)},
			"u3": {reminder("c", models.SeverityDueSoon)},
		},
		failFor: "u4",
	}
	notifier := &recordingNotifier{}
	s := newTestScheduler(source, notifier, 10)

	s.checkAndSendReminders()

	if len(notifier.sent) != 2 || notifier.sent["u1"] != 2 || notifier.sent["u3"] != 1 {
		t.Fatalf("sent = %v", notifier.sent)
	}
}

func TestCheckAndSendRemindersOutsideWindow(t *testing.T) {
	source := &fakeSource{
		users: []string{"u1"},
		feeds: map[string][]models.Reminder{"u1": {reminder("a", models.SeverityOverdue)}},
	}
	for _, hour := range []int{3, 23} {
		notifier := &recordingNotifier{}
		newTestScheduler(source, notifier, hour).checkAndSendReminders()
		if len(notifier.sent) != 0 {
			t.Fatalf("hour %d: sent %v", hour, notifier.sent)
		}
	}
}

func TestInWindow(t *testing.T) {
	cases := []struct {
		start, end int
		in, out    []int
	}{
		{8, 22, []int{8, 15, 22}, []int{0, 7, 23}},
		{22, 6, []int{22, 23, 0, 3, 6}, []int{7, 12, 21}},
		{0, 0, []int{0}, []int{1, 12, 23}},
		{0, 23, []int{0, 12, 23}, nil},
	}
	for _, c := range cases {
		s := newWindowScheduler(&fakeSource{}, &recordingNotifier{}, c.start, c.end, 0)
		for _, h := range c.in {
			if !s.inWindow(h) {
				t.Fatalf("window %d-%d: hour %d should be inside", c.start, c.end, h)
			}
		}
		for _, h := range c.out {
			if s.inWindow(h) {
				t.Fatalf("window %d-%d: hour %d should be outside", c.start, c.end, h)
			}
		}
	}
}

func TestOvernightWindowSendsAfterMidnight(t *testing.T) {
	source := &fakeSource{
		users: []string{"u1"},
		feeds: map[string][]models.Reminder{"u1": {reminder("a", models.SeverityOverdue)}},
	}
	notifier := &recordingNotifier{}
	newWindowScheduler(source, notifier, 22, 6, 2).checkAndSendReminders()
	if notifier.sent["u1"] != 1 {
		t.Fatalf("sent = %v", notifier.sent)
	}
}

func TestStopCancelsDigestRun(t *testing.T) {
	source := &fakeSource{
		users: []string{"u1"},
		feeds: map[string][]models.Reminder{"u1": {reminder("a", models.SeverityOverdue)}},
	}
	notifier := &recordingNotifier{}
	s := newTestScheduler(source, notifier, 10)
	s.Stop()

	s.checkAndSendReminders()
	if source.listCtx == nil || !errors.Is(source.listCtx.Err(), context.Canceled) {
		t.Fatal("digest run should see a cancelled context after Stop")
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("sent after stop: %v", notifier.sent)
	}
}

func TestCheckAndSendRemindersListFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestScheduler(&fakeSource{listErr: errors.New("down")}, notifier, 10)
	s.checkAndSendReminders()
	if len(notifier.sent) != 0 {
		t.Fatalf("sent = %v", notifier.sent)
	}
}

func TestRunManualCheck(t *testing.T) {
	source := &fakeSource{
		feeds:   map[string][]models.Reminder{"u1": {reminder("a", models.SeverityDueToday)}},
		failFor: "bad",
	}
	notifier := &recordingNotifier{}
	// hour outside the window is ignored for manual checks
	s := newTestScheduler(source, notifier, 2)

	if err := s.RunManualCheck(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if notifier.sent["u1"] != 1 {
		t.Fatalf("sent = %v", notifier.sent)
	}
	if err := s.RunManualCheck(context.Background(), "empty"); err != nil {
		t.Fatal(err)
	}
	if _, ok := notifier.sent["empty"]; ok {
		t.Fatal("empty feed should not be sent")
	}
	if err := s.RunManualCheck(context.Background(), "bad"); err == nil {
		t.Fatal("expected error")
	}

	notifier.err = errors.New("smtp down")
	if err := s.RunManualCheck(context.Background(), "u1"); err == nil {
		t.Fatal("expected notifier error")
	}
}

func TestStartStop(t *testing.T) {
	s := New(&fakeSource{}, &recordingNotifier{}, config.DigestConfig{Every: time.Hour, StartHour: 0, EndHour: 23}, time.UTC, quietLogger())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	n := &LogNotifier{Log: l}
	err := n.SendReminders(context.Background(), "u1", []models.Reminder{
		reminder("a", models.SeverityOverdue),
		reminder("b", models.SeverityOverdue),
		reminder("c", models.SeverityAtRisk),
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"user_id":"u1"`, `"overdue":2`, `"at_risk":1`, `"total":3`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log %q missing %s", out, want)
		}
	}
}
