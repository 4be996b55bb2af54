package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/set-night/firelinx/internal/domain"
	"github.com/set-night/firelinx/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocator struct {
	mu    sync.Mutex
	links map[string]domain.Coordinate
	err   error
}

func (l *fakeLocator) FromURL(_ context.Context, rawURL string) (domain.Coordinate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return domain.Coordinate{}, l.err
	}
	c, ok := l.links[rawURL]
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("%w: unknown link", domain.ErrUnresolvableLocation)
	}
	return c, nil
}

func (l *fakeLocator) FromText(text string) (domain.Coordinate, error) {
	return coordinateFromText(text)
}

type fakeRecognizer struct {
	text string
	err  error
}

func (r *fakeRecognizer) Recognize(context.Context, []byte, string) (string, error) {
	return r.text, r.err
}

type fakeImages struct {
	err error
}

func (f *fakeImages) Download(context.Context, string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("jpeg"), nil
}

type intakeFixture struct {
	intake   *IntakeService
	sessions *SessionStore
	locator  *fakeLocator
	broker   *fakeBroker
}

const shareLink = "https://maps.app.goo.gl/Xy12"

func newIntakeFixture(t *testing.T, recognizer TextRecognizer, images ImageLoader) *intakeFixture {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	sessions := NewSessionStore(30*time.Minute, nil)
	locator := &fakeLocator{links: map[string]domain.Coordinate{
		shareLink: {Lat: 22.5726, Lng: 88.3639},
	}}
	broker := &fakeBroker{}
	publisher := NewAlertPublisher(broker, &fakeJournal{}, metrics, time.Second, time.UTC)

	return &intakeFixture{
		intake: NewIntakeService(IntakeDeps{
			Sessions:   sessions,
			Locator:    locator,
			Recognizer: recognizer,
			Images:     images,
			Publisher:  publisher,
			Metrics:    metrics,
		}),
		sessions: sessions,
		locator:  locator,
		broker:   broker,
	}
}

func (f *intakeFixture) send(chatID int64, text string) Outcome {
	return f.intake.Handle(context.Background(), domain.Inbound{
		ChatID:   chatID,
		Reporter: domain.NewReporter(5012345678, "ranger", ""),
		Text:     text,
	})
}

func (f *intakeFixture) sendImage(chatID int64) Outcome {
	return f.intake.Handle(context.Background(), domain.Inbound{
		ChatID:   chatID,
		Reporter: domain.NewReporter(5012345678, "ranger", ""),
		Image:    &domain.ImageRef{FileID: "file-1", MimeType: "image/jpeg"},
	})
}

func TestIntake_DirectCommand(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)

	out := f.send(1, "/fire B 3 22.5726 88.3639")

	require.NoError(t, out.Err)
	require.NotNil(t, out.Report)
	assert.Equal(t, domain.ClassB, out.Report.Classification)
	assert.Equal(t, domain.Severity(3), out.Report.Severity)
	assert.Equal(t, domain.Coordinate{Lat: 22.5726, Lng: 88.3639}, out.Report.Coordinate)
	assert.Equal(t, domain.SourceCommand, out.Report.Source)

	require.NotNil(t, out.Publish)
	assert.True(t, out.Publish.Delivered)
	require.Len(t, f.broker.sent, 1)
	assert.Contains(t, string(f.broker.sent[0]), `"fireType":"B","fireIntensity":"3"`)
	assert.Contains(t, string(f.broker.sent[0]), `"longitude":"88°21.8340'E"`)
	assert.Contains(t, string(f.broker.sent[0]), `"latitude":"22°34.3560'N"`)
	assert.Contains(t, out.Prompt.Text, "Fire alert sent")
	assert.Nil(t, f.sessions.Get(1))
}

func TestIntake_DirectCommandWithBotMention(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)
	out := f.send(1, "/fire@FireLinxBot d 1 -33.8688 151.2093")
	require.NoError(t, out.Err)
	assert.Equal(t, domain.ClassD, out.Report.Classification)
}

func TestIntake_DirectCommandDropsSession(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)
	f.send(1, shareLink)
	require.NotNil(t, f.sessions.Get(1))

	out := f.send(1, "/fire A 1 10 20")
	require.NoError(t, out.Err)
	assert.Nil(t, f.sessions.Get(1))
}

func TestIntake_MalformedCommandLeavesSessionUntouched(t *testing.T) {
	inputs := []string{
		"/fire B 3 22.5726",
		"/fire B 3 22.5726 88.3639 extra",
		"/fire",
		"/fire X 3 22.5726 88.3639",
		"/fire B 5 22.5726 88.3639",
		"/fire B 3 95 88.3639",
		"/fire B 3 22.5726 1e2",
		"/fire B 3 NaN 88.3639",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			f := newIntakeFixture(t, nil, nil)
			f.send(1, shareLink)
			f.send(1, "C")
			before := f.sessions.Get(1)
			require.NotNil(t, before)

			out := f.send(1, input)

			assert.True(t, errors.Is(out.Err, domain.ErrFormat))
			assert.Nil(t, out.Report)
			assert.Contains(t, out.Prompt.Text, "Invalid format")
			assert.Equal(t, before, f.sessions.Get(1))
			assert.Empty(t, f.broker.sent)
		})
	}
}

func TestIntake_LinkFlow(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)

	out := f.send(7, "fire near here "+shareLink)
	require.NoError(t, out.Err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, out.Prompt.Buttons)
	sess := f.sessions.Get(7)
	require.NotNil(t, sess)
	assert.Equal(t, domain.StageAwaitingClassification, sess.Stage)
	assert.Equal(t, domain.Coordinate{Lat: 22.5726, Lng: 88.3639}, *sess.Coordinate)

	out = f.send(7, "b")
	require.NoError(t, out.Err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, out.Prompt.Buttons)
	sess = f.sessions.Get(7)
	require.NotNil(t, sess)
	assert.Equal(t, domain.StageAwaitingSeverity, sess.Stage)
	assert.Equal(t, domain.ClassB, *sess.Classification)

	out = f.send(7, "3")
	require.NoError(t, out.Err)
	require.NotNil(t, out.Report)
	assert.Equal(t, domain.SourceLink, out.Report.Source)
	assert.Equal(t, domain.Severity(3), out.Report.Severity)
	assert.True(t, out.Publish.Delivered)
	assert.Nil(t, f.sessions.Get(7))
}

func TestIntake_WrongStageInputIsIgnored(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)
	f.send(1, shareLink)

	out := f.send(1, "3")
	assert.NoError(t, out.Err)
	assert.Nil(t, out.Report)
	assert.Equal(t, []string{"A", "B", "C", "D"}, out.Prompt.Buttons)
	assert.Equal(t, domain.StageAwaitingClassification, f.sessions.Get(1).Stage)

	f.send(1, "A")
	out = f.send(1, "B")
	assert.Nil(t, out.Report)
	assert.Equal(t, []string{"1", "2", "3", "4"}, out.Prompt.Buttons)
	assert.Equal(t, domain.StageAwaitingSeverity, f.sessions.Get(1).Stage)
	assert.Empty(t, f.broker.sent)
}

func TestIntake_NoSessionGuidance(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)
	for _, text := range []string{"hello", "B", "3", ""} {
		out := f.send(1, text)
		assert.Equal(t, "other", out.Kind)
		assert.Empty(t, out.Prompt.Buttons)
		assert.Nil(t, f.sessions.Get(1))
	}
}

func TestIntake_LinkFailureLeavesSession(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)
	f.send(1, shareLink)
	f.send(1, "D")
	before := f.sessions.Get(1)

	out := f.send(1, "https://maps.app.goo.gl/unknown")
	assert.True(t, errors.Is(out.Err, domain.ErrUnresolvableLocation))
	assert.Equal(t, "❌ Could not extract location from link.", out.Prompt.Text)
	assert.Equal(t, before, f.sessions.Get(1))

	f.locator.err = fmt.Errorf("%w: timeout", domain.ErrResolutionFailed)
	out = f.send(1, shareLink)
	assert.True(t, errors.Is(out.Err, domain.ErrResolutionFailed))
	assert.Contains(t, out.Prompt.Text, "try again")
	assert.Equal(t, before, f.sessions.Get(1))
}

func TestIntake_LinkReplacesSession(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)
	f.locator.links["https://maps.app.goo.gl/other"] = domain.Coordinate{Lat: -1, Lng: -2}
	f.send(1, shareLink)
	f.send(1, "A")

	f.send(1, "https://maps.app.goo.gl/other")

	sess := f.sessions.Get(1)
	require.NotNil(t, sess)
	assert.Equal(t, domain.StageAwaitingClassification, sess.Stage)
	assert.Nil(t, sess.Classification)
	assert.Equal(t, domain.Coordinate{Lat: -1, Lng: -2}, *sess.Coordinate)
}

func TestIntake_ImageFlow(t *testing.T) {
	f := newIntakeFixture(t, &fakeRecognizer{text: "Lat 22.5726° Long 88.3639°"}, &fakeImages{})

	out := f.sendImage(1)
	require.NoError(t, out.Err)
	sess := f.sessions.Get(1)
	require.NotNil(t, sess)
	assert.Equal(t, domain.SourceImage, sess.Source)

	f.send(1, "C")
	out = f.send(1, "4")
	require.NotNil(t, out.Report)
	assert.Equal(t, domain.SourceImage, out.Report.Source)
	assert.Equal(t, domain.ClassC, out.Report.Classification)
}

func TestIntake_ImageFailures(t *testing.T) {
	f := newIntakeFixture(t, &fakeRecognizer{text: "no coordinates here"}, &fakeImages{})
	out := f.sendImage(1)
	assert.True(t, errors.Is(out.Err, domain.ErrUnresolvableLocation))
	assert.Nil(t, f.sessions.Get(1))

	f = newIntakeFixture(t, &fakeRecognizer{err: errors.New("503")}, &fakeImages{})
	out = f.sendImage(1)
	assert.True(t, errors.Is(out.Err, domain.ErrResolutionFailed))

	f = newIntakeFixture(t, &fakeRecognizer{}, &fakeImages{err: errors.New("file too big")})
	out = f.sendImage(1)
	assert.True(t, errors.Is(out.Err, domain.ErrResolutionFailed))

	f = newIntakeFixture(t, nil, nil)
	out = f.sendImage(1)
	assert.True(t, errors.Is(out.Err, domain.ErrResolutionFailed))
	assert.Contains(t, out.Prompt.Text, "not available")
}

func TestIntake_ReplayAfterFinalizeIsFresh(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)
	f.send(1, shareLink)
	f.send(1, "B")
	first := f.send(1, "3")
	require.NotNil(t, first.Report)

	replay := f.send(1, "3")
	assert.Nil(t, replay.Report)
	assert.Equal(t, "other", replay.Kind)
	assert.Equal(t, 1, f.broker.Attempts())
}

func TestIntake_PublishFailureStillClearsSession(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)
	f.broker.err = errors.New("broker down")
	f.send(1, shareLink)
	f.send(1, "A")

	out := f.send(1, "2")
	require.NotNil(t, out.Report)
	assert.False(t, out.Publish.Delivered)
	assert.True(t, errors.Is(out.Err, domain.ErrPublishFailed))
	assert.Contains(t, out.Prompt.Text, "Failed to send alert")
	assert.Nil(t, f.sessions.Get(1))
}

func TestIntake_ConcurrentChatsAreIsolated(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)
	const chats = 20
	for i := 1; i <= chats; i++ {
		f.locator.links[fmt.Sprintf("https://maps.app.goo.gl/chat%d", i)] = domain.Coordinate{Lat: float64(i), Lng: float64(-i)}
	}

	reports := make([]*domain.FireReport, chats+1)
	var wg sync.WaitGroup
	for i := 1; i <= chats; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			f.send(id, fmt.Sprintf("https://maps.app.goo.gl/chat%d", id))
			f.send(id, "A")
			reports[id] = f.send(id, "1").Report
		}(int64(i))
	}
	wg.Wait()

	for i := 1; i <= chats; i++ {
		require.NotNil(t, reports[i], "chat %d", i)
		assert.Equal(t, int64(i), reports[i].ChatID)
		assert.Equal(t, domain.Coordinate{Lat: float64(i), Lng: float64(-i)}, reports[i].Coordinate)
	}
	assert.Equal(t, chats, f.broker.Attempts())
	assert.Equal(t, 0, f.sessions.Len())
}

func TestIntake_Cancel(t *testing.T) {
	f := newIntakeFixture(t, nil, nil)
	f.send(1, shareLink)

	assert.Contains(t, f.intake.Cancel(1).Text, "discarded")
	assert.Nil(t, f.intake.Pending(1))
	assert.Equal(t, "Nothing to cancel.", f.intake.Cancel(1).Text)
}
