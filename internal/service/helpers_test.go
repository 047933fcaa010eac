package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/email"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureMailer returns a Mailer whose messages end up in the returned slice.
func captureMailer() (*Mailer, *[]email.Message) {
	var sent []email.Message
	m := &Mailer{
		PublicURL: "https://hp.example",
		Logger:    discardLogger(),
		Sender: email.SenderFunc(func(_ context.Context, msg email.Message) error {
			sent = append(sent, msg)
			return nil
		}),
	}
	return m, &sent
}

type recordedEvent struct {
	userID int64
	event  domain.Event
}

type eventRecorder struct {
	events []recordedEvent
}

func (r *eventRecorder) Log(_ context.Context, u *domain.User, ev domain.Event) {
	var id int64
	if u != nil {
		id = u.ID
	}
	r.events = append(r.events, recordedEvent{userID: id, event: ev})
}

// fakeFiles is an in-memory FileStore.
type fakeFiles struct {
	files      map[string]string
	thumbs     map[string]bool
	next       int
	saveErr    error
	thumbErr   error
	deleted    []string
	savedNames []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: map[string]string{}, thumbs: map[string]bool{}}
}

func (f *fakeFiles) Save(subfolder string, r io.Reader, origName string, _ bool) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.next++
	rel := path.Join(subfolder, fmt.Sprintf("f%d%s", f.next, path.Ext(origName)))
	f.files[rel] = string(data)
	f.savedNames = append(f.savedNames, origName)
	return rel, nil
}

func (f *fakeFiles) Thumbnail(rel string) error {
	if f.thumbErr != nil {
		return f.thumbErr
	}
	if _, ok := f.files[rel]; !ok {
		return errors.New("no such file")
	}
	f.thumbs[rel] = true
	return nil
}

func (f *fakeFiles) Delete(rel string) error {
	delete(f.files, rel)
	delete(f.thumbs, rel)
	f.deleted = append(f.deleted, rel)
	return nil
}
