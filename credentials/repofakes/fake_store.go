package fakecredstore

import (
	"sync"

	"github.com/mtarnavskyi/quiz-webclient/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

type FakeStore struct {
	session *credentials.Session
	locale  string
	lock    sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Save(session credentials.Session) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	stored := session
	if session.Profile != nil {
		profile := *session.Profile
		stored.Profile = &profile
	}
	fs.session = &stored
	return nil
}

func (fs *FakeStore) Load() (*credentials.Session, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	if fs.session == nil {
		return nil, nil
	}
	loaded := *fs.session
	if fs.session.Profile != nil {
		profile := *fs.session.Profile
		loaded.Profile = &profile
	}
	return &loaded, nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.session = nil
	return nil
}

func (fs *FakeStore) UpdateAccessToken(token string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.session == nil {
		return nil
	}
	fs.session.Access = token
	return nil
}

func (fs *FakeStore) SaveLocale(code string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.locale = code
	return nil
}

func (fs *FakeStore) Locale() (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.locale, nil
}
