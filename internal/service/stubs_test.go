package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hiddenplaces/internal/domain"
)

type stubUsersStore struct {
	t *testing.T

	createUserFunc          func(context.Context, domain.NewUser) (domain.User, error)
	createRootFunc          func(context.Context, domain.NewUser) (domain.User, error)
	getUserByIDFunc         func(context.Context, int64) (domain.User, error)
	getUserWithPasswordFunc func(context.Context, int64) (domain.UserWithPassword, error)
	getUserByEmailFunc      func(context.Context, string) (domain.UserWithPassword, error)
	updateProfileFunc       func(context.Context, int64, string, string) error
	setPasswordHashFunc     func(context.Context, int64, string) error
	setEmailFunc            func(context.Context, int64, string) error
	setRoleFunc             func(context.Context, int64, domain.Role) error
	setActiveFunc           func(context.Context, int64, bool) error
	touchLastSeenFunc       func(context.Context, int64, time.Time) error
	setCheckTSFunc          func(context.Context, int64, domain.CheckSection, time.Time) error
	listUsersFunc           func(context.Context, domain.UserFilter, time.Time, domain.PageRequest) (domain.PageResult[domain.User], error)
	listByMaxRoleFunc       func(context.Context, domain.Role) ([]domain.User, error)
	listActiveUsersFunc     func(context.Context) ([]domain.User, error)
	userStatsFunc           func(context.Context, int64) (int, int, error)
}

func (s *stubUsersStore) CreateUser(ctx context.Context, nu domain.NewUser) (domain.User, error) {
	if s.createUserFunc != nil {
		return s.createUserFunc(ctx, nu)
	}
	s.t.Fatalf("CreateUser called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) CreateRoot(ctx context.Context, nu domain.NewUser) (domain.User, error) {
	if s.createRootFunc != nil {
		return s.createRootFunc(ctx, nu)
	}
	s.t.Fatalf("CreateRoot called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	if s.getUserByIDFunc != nil {
		return s.getUserByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetUserByID called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) GetUserWithPassword(ctx context.Context, id int64) (domain.UserWithPassword, error) {
	if s.getUserWithPasswordFunc != nil {
		return s.getUserWithPasswordFunc(ctx, id)
	}
	s.t.Fatalf("GetUserWithPassword called unexpectedly")
	return domain.UserWithPassword{}, errors.New("unexpected call")
}

func (s *stubUsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	if s.getUserByEmailFunc != nil {
		return s.getUserByEmailFunc(ctx, email)
	}
	s.t.Fatalf("GetUserByEmail called unexpectedly")
	return domain.UserWithPassword{}, errors.New("unexpected call")
}

func (s *stubUsersStore) UpdateProfile(ctx context.Context, id int64, about string, photoPath string) error {
	if s.updateProfileFunc != nil {
		return s.updateProfileFunc(ctx, id, about, photoPath)
	}
	s.t.Fatalf("UpdateProfile called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUsersStore) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	if s.setPasswordHashFunc != nil {
		return s.setPasswordHashFunc(ctx, id, hash)
	}
	s.t.Fatalf("SetPasswordHash called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUsersStore) SetEmail(ctx context.Context, id int64, email string) error {
	if s.setEmailFunc != nil {
		return s.setEmailFunc(ctx, id, email)
	}
	s.t.Fatalf("SetEmail called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUsersStore) SetRole(ctx context.Context, id int64, role domain.Role) error {
	if s.setRoleFunc != nil {
		return s.setRoleFunc(ctx, id, role)
	}
	s.t.Fatalf("SetRole called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUsersStore) SetActive(ctx context.Context, id int64, active bool) error {
	if s.setActiveFunc != nil {
		return s.setActiveFunc(ctx, id, active)
	}
	s.t.Fatalf("SetActive called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUsersStore) TouchLastSeen(ctx context.Context, id int64, when time.Time) error {
	if s.touchLastSeenFunc != nil {
		return s.touchLastSeenFunc(ctx, id, when)
	}
	s.t.Fatalf("TouchLastSeen called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUsersStore) SetCheckTS(ctx context.Context, id int64, section domain.CheckSection, when time.Time) error {
	if s.setCheckTSFunc != nil {
		return s.setCheckTSFunc(ctx, id, section, when)
	}
	s.t.Fatalf("SetCheckTS called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUsersStore) ListUsers(ctx context.Context, filter domain.UserFilter, now time.Time, page domain.PageRequest) (domain.PageResult[domain.User], error) {
	if s.listUsersFunc != nil {
		return s.listUsersFunc(ctx, filter, now, page)
	}
	s.t.Fatalf("ListUsers called unexpectedly")
	return domain.PageResult[domain.User]{}, errors.New("unexpected call")
}

func (s *stubUsersStore) ListByMaxRole(ctx context.Context, max domain.Role) ([]domain.User, error) {
	if s.listByMaxRoleFunc != nil {
		return s.listByMaxRoleFunc(ctx, max)
	}
	s.t.Fatalf("ListByMaxRole called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubUsersStore) ListActiveUsers(ctx context.Context) ([]domain.User, error) {
	if s.listActiveUsersFunc != nil {
		return s.listActiveUsersFunc(ctx)
	}
	s.t.Fatalf("ListActiveUsers called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubUsersStore) UserStats(ctx context.Context, id int64) (int, int, error) {
	if s.userStatsFunc != nil {
		return s.userStatsFunc(ctx, id)
	}
	s.t.Fatalf("UserStats called unexpectedly")
	return 0, 0, errors.New("unexpected call")
}

type stubSessionsStore struct {
	t *testing.T

	createSessionFunc      func(context.Context, int64, time.Time, string, string) (string, error)
	getSessionFunc         func(context.Context, string) (domain.Session, error)
	revokeSessionFunc      func(context.Context, string, time.Time) error
	revokeUserSessionsFunc func(context.Context, int64, time.Time) error
}

func (s *stubSessionsStore) CreateSession(ctx context.Context, userID int64, expiresAt time.Time, ip string, userAgent string) (string, error) {
	if s.createSessionFunc != nil {
		return s.createSessionFunc(ctx, userID, expiresAt, ip, userAgent)
	}
	s.t.Fatalf("CreateSession called unexpectedly")
	return "", errors.New("unexpected call")
}

func (s *stubSessionsStore) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if s.getSessionFunc != nil {
		return s.getSessionFunc(ctx, sessionID)
	}
	s.t.Fatalf("GetSession called unexpectedly")
	return domain.Session{}, errors.New("unexpected call")
}

func (s *stubSessionsStore) RevokeSession(ctx context.Context, sessionID string, when time.Time) error {
	if s.revokeSessionFunc != nil {
		return s.revokeSessionFunc(ctx, sessionID, when)
	}
	s.t.Fatalf("RevokeSession called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubSessionsStore) RevokeUserSessions(ctx context.Context, userID int64, when time.Time) error {
	if s.revokeUserSessionsFunc != nil {
		return s.revokeUserSessionsFunc(ctx, userID, when)
	}
	s.t.Fatalf("RevokeUserSessions called unexpectedly")
	return errors.New("unexpected call")
}

type stubBansStore struct {
	t *testing.T

	createBanFunc func(context.Context, domain.Ban) (domain.Ban, error)
	activeBanFunc func(context.Context, int64, time.Time) (domain.Ban, error)
}

func (s *stubBansStore) CreateBan(ctx context.Context, b domain.Ban) (domain.Ban, error) {
	if s.createBanFunc != nil {
		return s.createBanFunc(ctx, b)
	}
	s.t.Fatalf("CreateBan called unexpectedly")
	return domain.Ban{}, errors.New("unexpected call")
}

func (s *stubBansStore) ActiveBan(ctx context.Context, userID int64, now time.Time) (domain.Ban, error) {
	if s.activeBanFunc != nil {
		return s.activeBanFunc(ctx, userID, now)
	}
	s.t.Fatalf("ActiveBan called unexpectedly")
	return domain.Ban{}, errors.New("unexpected call")
}

type stubLoginLogsStore struct {
	t *testing.T

	createLoginLogFunc   func(context.Context, domain.LoginLog) error
	listLoginLogsFunc    func(context.Context, domain.LoginFilter, *time.Time, domain.PageRequest) (domain.PageResult[domain.LoginLog], error)
	countFailedSinceFunc func(context.Context, time.Time) (int, error)
}

func (s *stubLoginLogsStore) CreateLoginLog(ctx context.Context, l domain.LoginLog) error {
	if s.createLoginLogFunc != nil {
		return s.createLoginLogFunc(ctx, l)
	}
	s.t.Fatalf("CreateLoginLog called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubLoginLogsStore) ListLoginLogs(ctx context.Context, filter domain.LoginFilter, since *time.Time, page domain.PageRequest) (domain.PageResult[domain.LoginLog], error) {
	if s.listLoginLogsFunc != nil {
		return s.listLoginLogsFunc(ctx, filter, since, page)
	}
	s.t.Fatalf("ListLoginLogs called unexpectedly")
	return domain.PageResult[domain.LoginLog]{}, errors.New("unexpected call")
}

func (s *stubLoginLogsStore) CountFailedSince(ctx context.Context, since time.Time) (int, error) {
	if s.countFailedSinceFunc != nil {
		return s.countFailedSinceFunc(ctx, since)
	}
	s.t.Fatalf("CountFailedSince called unexpectedly")
	return 0, errors.New("unexpected call")
}

type stubEventsStore struct {
	t *testing.T

	createEventFunc func(context.Context, domain.Event) error
	listEventsFunc  func(context.Context, domain.PageRequest) (domain.PageResult[domain.Event], error)
	countSinceFunc  func(context.Context, time.Time) (int, error)
}

func (s *stubEventsStore) CreateEvent(ctx context.Context, e domain.Event) error {
	if s.createEventFunc != nil {
		return s.createEventFunc(ctx, e)
	}
	s.t.Fatalf("CreateEvent called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubEventsStore) ListEvents(ctx context.Context, page domain.PageRequest) (domain.PageResult[domain.Event], error) {
	if s.listEventsFunc != nil {
		return s.listEventsFunc(ctx, page)
	}
	s.t.Fatalf("ListEvents called unexpectedly")
	return domain.PageResult[domain.Event]{}, errors.New("unexpected call")
}

func (s *stubEventsStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	if s.countSinceFunc != nil {
		return s.countSinceFunc(ctx, since)
	}
	s.t.Fatalf("CountSince called unexpectedly")
	return 0, errors.New("unexpected call")
}

type stubInvitationsStore struct {
	t *testing.T

	createInvitationFunc   func(context.Context, domain.Invitation) (domain.Invitation, error)
	getInvitationFunc      func(context.Context, int64) (domain.Invitation, error)
	findOpenInvitationFunc func(context.Context, string) (domain.Invitation, error)
	setStateFunc           func(context.Context, int64, domain.InvitationState, *int64, time.Time) error
	listInvitationsFunc    func(context.Context, *domain.InvitationState, domain.PageRequest) (domain.PageResult[domain.Invitation], error)
	expireStaleFunc        func(context.Context, time.Time) (int64, error)
	registerUserFunc       func(context.Context, int64, domain.NewUser) (domain.User, error)
}

func (s *stubInvitationsStore) CreateInvitation(ctx context.Context, inv domain.Invitation) (domain.Invitation, error) {
	if s.createInvitationFunc != nil {
		return s.createInvitationFunc(ctx, inv)
	}
	s.t.Fatalf("CreateInvitation called unexpectedly")
	return domain.Invitation{}, errors.New("unexpected call")
}

func (s *stubInvitationsStore) GetInvitation(ctx context.Context, id int64) (domain.Invitation, error) {
	if s.getInvitationFunc != nil {
		return s.getInvitationFunc(ctx, id)
	}
	s.t.Fatalf("GetInvitation called unexpectedly")
	return domain.Invitation{}, errors.New("unexpected call")
}

func (s *stubInvitationsStore) FindOpenInvitation(ctx context.Context, email string) (domain.Invitation, error) {
	if s.findOpenInvitationFunc != nil {
		return s.findOpenInvitationFunc(ctx, email)
	}
	s.t.Fatalf("FindOpenInvitation called unexpectedly")
	return domain.Invitation{}, errors.New("unexpected call")
}

func (s *stubInvitationsStore) SetState(ctx context.Context, id int64, state domain.InvitationState, approvedBy *int64, when time.Time) error {
	if s.setStateFunc != nil {
		return s.setStateFunc(ctx, id, state, approvedBy, when)
	}
	s.t.Fatalf("SetState called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubInvitationsStore) ListInvitations(ctx context.Context, state *domain.InvitationState, page domain.PageRequest) (domain.PageResult[domain.Invitation], error) {
	if s.listInvitationsFunc != nil {
		return s.listInvitationsFunc(ctx, state, page)
	}
	s.t.Fatalf("ListInvitations called unexpectedly")
	return domain.PageResult[domain.Invitation]{}, errors.New("unexpected call")
}

func (s *stubInvitationsStore) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.expireStaleFunc != nil {
		return s.expireStaleFunc(ctx, cutoff)
	}
	s.t.Fatalf("ExpireStale called unexpectedly")
	return 0, errors.New("unexpected call")
}

func (s *stubInvitationsStore) RegisterUser(ctx context.Context, inviteID int64, nu domain.NewUser) (domain.User, error) {
	if s.registerUserFunc != nil {
		return s.registerUserFunc(ctx, inviteID, nu)
	}
	s.t.Fatalf("RegisterUser called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

type stubLocationsStore struct {
	t *testing.T

	createLocationFunc func(context.Context, domain.Location) (domain.Location, error)
	getLocationFunc    func(context.Context, int64) (domain.Location, error)
	updateLocationFunc func(context.Context, domain.Location) error
	deleteLocationFunc func(context.Context, int64) error
	setPhotoFunc       func(context.Context, int64, *int64) error
	listLocationsFunc  func(context.Context, domain.LocationFilter, domain.PageRequest) (domain.PageResult[domain.Location], error)
	listAllFunc        func(context.Context, domain.LocationFilter) ([]domain.Location, error)
	listChildrenFunc   func(context.Context, int64) ([]domain.Location, error)
	listVisitedFunc    func(context.Context, int64, domain.LocationFilter, domain.PageRequest) (domain.PageResult[domain.LocationVisit], error)
	countSinceFunc     func(context.Context, time.Time) (int, error)
}

func (s *stubLocationsStore) CreateLocation(ctx context.Context, l domain.Location) (domain.Location, error) {
	if s.createLocationFunc != nil {
		return s.createLocationFunc(ctx, l)
	}
	s.t.Fatalf("CreateLocation called unexpectedly")
	return domain.Location{}, errors.New("unexpected call")
}

func (s *stubLocationsStore) GetLocation(ctx context.Context, id int64) (domain.Location, error) {
	if s.getLocationFunc != nil {
		return s.getLocationFunc(ctx, id)
	}
	s.t.Fatalf("GetLocation called unexpectedly")
	return domain.Location{}, errors.New("unexpected call")
}

func (s *stubLocationsStore) UpdateLocation(ctx context.Context, l domain.Location) error {
	if s.updateLocationFunc != nil {
		return s.updateLocationFunc(ctx, l)
	}
	s.t.Fatalf("UpdateLocation called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubLocationsStore) DeleteLocation(ctx context.Context, id int64) error {
	if s.deleteLocationFunc != nil {
		return s.deleteLocationFunc(ctx, id)
	}
	s.t.Fatalf("DeleteLocation called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubLocationsStore) SetPhoto(ctx context.Context, id int64, uploadID *int64) error {
	if s.setPhotoFunc != nil {
		return s.setPhotoFunc(ctx, id, uploadID)
	}
	s.t.Fatalf("SetPhoto called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubLocationsStore) ListLocations(ctx context.Context, f domain.LocationFilter, page domain.PageRequest) (domain.PageResult[domain.Location], error) {
	if s.listLocationsFunc != nil {
		return s.listLocationsFunc(ctx, f, page)
	}
	s.t.Fatalf("ListLocations called unexpectedly")
	return domain.PageResult[domain.Location]{}, errors.New("unexpected call")
}

func (s *stubLocationsStore) ListAll(ctx context.Context, f domain.LocationFilter) ([]domain.Location, error) {
	if s.listAllFunc != nil {
		return s.listAllFunc(ctx, f)
	}
	s.t.Fatalf("ListAll called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubLocationsStore) ListChildren(ctx context.Context, parentID int64) ([]domain.Location, error) {
	if s.listChildrenFunc != nil {
		return s.listChildrenFunc(ctx, parentID)
	}
	s.t.Fatalf("ListChildren called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubLocationsStore) ListVisited(ctx context.Context, userID int64, f domain.LocationFilter, page domain.PageRequest) (domain.PageResult[domain.LocationVisit], error) {
	if s.listVisitedFunc != nil {
		return s.listVisitedFunc(ctx, userID, f, page)
	}
	s.t.Fatalf("ListVisited called unexpectedly")
	return domain.PageResult[domain.LocationVisit]{}, errors.New("unexpected call")
}

func (s *stubLocationsStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	if s.countSinceFunc != nil {
		return s.countSinceFunc(ctx, since)
	}
	s.t.Fatalf("CountSince called unexpectedly")
	return 0, errors.New("unexpected call")
}

type stubUploadsStore struct {
	t *testing.T

	createUploadFunc func(context.Context, domain.Upload) (domain.Upload, error)
	getUploadFunc    func(context.Context, int64) (domain.Upload, error)
	updateUploadFunc func(context.Context, domain.Upload) error
	deleteUploadFunc func(context.Context, int64) error
	listByObjectFunc func(context.Context, string) ([]domain.Upload, error)
	listByTypeFunc   func(context.Context, domain.UploadType, domain.PageRequest) (domain.PageResult[domain.Upload], error)
}

func (s *stubUploadsStore) CreateUpload(ctx context.Context, u domain.Upload) (domain.Upload, error) {
	if s.createUploadFunc != nil {
		return s.createUploadFunc(ctx, u)
	}
	s.t.Fatalf("CreateUpload called unexpectedly")
	return domain.Upload{}, errors.New("unexpected call")
}

func (s *stubUploadsStore) GetUpload(ctx context.Context, id int64) (domain.Upload, error) {
	if s.getUploadFunc != nil {
		return s.getUploadFunc(ctx, id)
	}
	s.t.Fatalf("GetUpload called unexpectedly")
	return domain.Upload{}, errors.New("unexpected call")
}

func (s *stubUploadsStore) UpdateUpload(ctx context.Context, u domain.Upload) error {
	if s.updateUploadFunc != nil {
		return s.updateUploadFunc(ctx, u)
	}
	s.t.Fatalf("UpdateUpload called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUploadsStore) DeleteUpload(ctx context.Context, id int64) error {
	if s.deleteUploadFunc != nil {
		return s.deleteUploadFunc(ctx, id)
	}
	s.t.Fatalf("DeleteUpload called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUploadsStore) ListByObject(ctx context.Context, objectUUID string) ([]domain.Upload, error) {
	if s.listByObjectFunc != nil {
		return s.listByObjectFunc(ctx, objectUUID)
	}
	s.t.Fatalf("ListByObject called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubUploadsStore) ListByType(ctx context.Context, t domain.UploadType, page domain.PageRequest) (domain.PageResult[domain.Upload], error) {
	if s.listByTypeFunc != nil {
		return s.listByTypeFunc(ctx, t, page)
	}
	s.t.Fatalf("ListByType called unexpectedly")
	return domain.PageResult[domain.Upload]{}, errors.New("unexpected call")
}

type stubBookmarksStore struct {
	t *testing.T

	createListFunc     func(context.Context, int64, string, *int64) (domain.BookmarkList, error)
	getListFunc        func(context.Context, int64) (domain.BookmarkList, error)
	getListByNameFunc  func(context.Context, int64, string) (domain.BookmarkList, error)
	listForUserFunc    func(context.Context, int64, *int64) ([]domain.BookmarkList, error)
	addLocationFunc    func(context.Context, int64, int64) (bool, error)
	removeLocationFunc func(context.Context, int64, int64) (bool, error)
}

func (s *stubBookmarksStore) CreateList(ctx context.Context, userID int64, name string, locationID *int64) (domain.BookmarkList, error) {
	if s.createListFunc != nil {
		return s.createListFunc(ctx, userID, name, locationID)
	}
	s.t.Fatalf("CreateList called unexpectedly")
	return domain.BookmarkList{}, errors.New("unexpected call")
}

func (s *stubBookmarksStore) GetList(ctx context.Context, id int64) (domain.BookmarkList, error) {
	if s.getListFunc != nil {
		return s.getListFunc(ctx, id)
	}
	s.t.Fatalf("GetList called unexpectedly")
	return domain.BookmarkList{}, errors.New("unexpected call")
}

func (s *stubBookmarksStore) GetListByName(ctx context.Context, userID int64, name string) (domain.BookmarkList, error) {
	if s.getListByNameFunc != nil {
		return s.getListByNameFunc(ctx, userID, name)
	}
	s.t.Fatalf("GetListByName called unexpectedly")
	return domain.BookmarkList{}, errors.New("unexpected call")
}

func (s *stubBookmarksStore) ListForUser(ctx context.Context, userID int64, locationID *int64) ([]domain.BookmarkList, error) {
	if s.listForUserFunc != nil {
		return s.listForUserFunc(ctx, userID, locationID)
	}
	s.t.Fatalf("ListForUser called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubBookmarksStore) AddLocation(ctx context.Context, listID int64, locationID int64) (bool, error) {
	if s.addLocationFunc != nil {
		return s.addLocationFunc(ctx, listID, locationID)
	}
	s.t.Fatalf("AddLocation called unexpectedly")
	return false, errors.New("unexpected call")
}

func (s *stubBookmarksStore) RemoveLocation(ctx context.Context, listID int64, locationID int64) (bool, error) {
	if s.removeLocationFunc != nil {
		return s.removeLocationFunc(ctx, listID, locationID)
	}
	s.t.Fatalf("RemoveLocation called unexpectedly")
	return false, errors.New("unexpected call")
}

type stubMessagesStore struct {
	t *testing.T

	createThreadFunc func(context.Context, domain.Thread, string) (domain.Thread, error)
	getThreadFunc    func(context.Context, int64) (domain.Thread, error)
	addMessageFunc   func(context.Context, domain.Message) error
	listMessagesFunc func(context.Context, int64) ([]domain.Message, error)
	listThreadsFunc  func(context.Context, int64, domain.PageRequest) (domain.PageResult[domain.Thread], error)
	markSeenFunc     func(context.Context, int64, int64) error
	countUnreadFunc  func(context.Context, int64) (int, error)
}

func (s *stubMessagesStore) CreateThread(ctx context.Context, t domain.Thread, text string) (domain.Thread, error) {
	if s.createThreadFunc != nil {
		return s.createThreadFunc(ctx, t, text)
	}
	s.t.Fatalf("CreateThread called unexpectedly")
	return domain.Thread{}, errors.New("unexpected call")
}

func (s *stubMessagesStore) GetThread(ctx context.Context, id int64) (domain.Thread, error) {
	if s.getThreadFunc != nil {
		return s.getThreadFunc(ctx, id)
	}
	s.t.Fatalf("GetThread called unexpectedly")
	return domain.Thread{}, errors.New("unexpected call")
}

func (s *stubMessagesStore) AddMessage(ctx context.Context, m domain.Message) error {
	if s.addMessageFunc != nil {
		return s.addMessageFunc(ctx, m)
	}
	s.t.Fatalf("AddMessage called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubMessagesStore) ListMessages(ctx context.Context, threadID int64) ([]domain.Message, error) {
	if s.listMessagesFunc != nil {
		return s.listMessagesFunc(ctx, threadID)
	}
	s.t.Fatalf("ListMessages called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubMessagesStore) ListThreads(ctx context.Context, userID int64, page domain.PageRequest) (domain.PageResult[domain.Thread], error) {
	if s.listThreadsFunc != nil {
		return s.listThreadsFunc(ctx, userID, page)
	}
	s.t.Fatalf("ListThreads called unexpectedly")
	return domain.PageResult[domain.Thread]{}, errors.New("unexpected call")
}

func (s *stubMessagesStore) MarkSeen(ctx context.Context, threadID int64, userID int64) error {
	if s.markSeenFunc != nil {
		return s.markSeenFunc(ctx, threadID, userID)
	}
	s.t.Fatalf("MarkSeen called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubMessagesStore) CountUnread(ctx context.Context, userID int64) (int, error) {
	if s.countUnreadFunc != nil {
		return s.countUnreadFunc(ctx, userID)
	}
	s.t.Fatalf("CountUnread called unexpectedly")
	return 0, errors.New("unexpected call")
}

type stubPagesStore struct {
	t *testing.T

	getPageFunc  func(context.Context, domain.PageType) (domain.Page, error)
	savePageFunc func(context.Context, domain.Page) error
}

func (s *stubPagesStore) GetPage(ctx context.Context, t domain.PageType) (domain.Page, error) {
	if s.getPageFunc != nil {
		return s.getPageFunc(ctx, t)
	}
	s.t.Fatalf("GetPage called unexpectedly")
	return domain.Page{}, errors.New("unexpected call")
}

func (s *stubPagesStore) SavePage(ctx context.Context, p domain.Page) error {
	if s.savePageFunc != nil {
		return s.savePageFunc(ctx, p)
	}
	s.t.Fatalf("SavePage called unexpectedly")
	return errors.New("unexpected call")
}

type stubCategoriesStore struct {
	t *testing.T

	createCategoryFunc func(context.Context, domain.Category) (domain.Category, error)
	getCategoryFunc    func(context.Context, int64) (domain.Category, error)
	updateCategoryFunc func(context.Context, domain.Category) error
	setPhotoFunc       func(context.Context, int64, *int64) error
	deleteCategoryFunc func(context.Context, int64) error
	listCategoriesFunc func(context.Context) ([]domain.Category, error)
}

func (s *stubCategoriesStore) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	if s.createCategoryFunc != nil {
		return s.createCategoryFunc(ctx, c)
	}
	s.t.Fatalf("CreateCategory called unexpectedly")
	return domain.Category{}, errors.New("unexpected call")
}

func (s *stubCategoriesStore) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	if s.getCategoryFunc != nil {
		return s.getCategoryFunc(ctx, id)
	}
	s.t.Fatalf("GetCategory called unexpectedly")
	return domain.Category{}, errors.New("unexpected call")
}

func (s *stubCategoriesStore) UpdateCategory(ctx context.Context, c domain.Category) error {
	if s.updateCategoryFunc != nil {
		return s.updateCategoryFunc(ctx, c)
	}
	s.t.Fatalf("UpdateCategory called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubCategoriesStore) SetPhoto(ctx context.Context, id int64, uploadID *int64) error {
	if s.setPhotoFunc != nil {
		return s.setPhotoFunc(ctx, id, uploadID)
	}
	s.t.Fatalf("SetPhoto called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubCategoriesStore) DeleteCategory(ctx context.Context, id int64) error {
	if s.deleteCategoryFunc != nil {
		return s.deleteCategoryFunc(ctx, id)
	}
	s.t.Fatalf("DeleteCategory called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubCategoriesStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if s.listCategoriesFunc != nil {
		return s.listCategoriesFunc(ctx)
	}
	s.t.Fatalf("ListCategories called unexpectedly")
	return nil, errors.New("unexpected call")
}

type stubVisitsStore struct {
	t *testing.T

	createVisitFunc func(context.Context, domain.Visit) (domain.Visit, error)
	getVisitFunc    func(context.Context, int64) (domain.Visit, error)
	updateVisitFunc func(context.Context, int64, time.Time, string) error
	deleteVisitFunc func(context.Context, int64) error
	listVisitsFunc  func(context.Context, int64) ([]domain.Visit, error)
}

func (s *stubVisitsStore) CreateVisit(ctx context.Context, v domain.Visit) (domain.Visit, error) {
	if s.createVisitFunc != nil {
		return s.createVisitFunc(ctx, v)
	}
	s.t.Fatalf("CreateVisit called unexpectedly")
	return domain.Visit{}, errors.New("unexpected call")
}

func (s *stubVisitsStore) GetVisit(ctx context.Context, id int64) (domain.Visit, error) {
	if s.getVisitFunc != nil {
		return s.getVisitFunc(ctx, id)
	}
	s.t.Fatalf("GetVisit called unexpectedly")
	return domain.Visit{}, errors.New("unexpected call")
}

func (s *stubVisitsStore) UpdateVisit(ctx context.Context, id int64, visitedOn time.Time, comment string) error {
	if s.updateVisitFunc != nil {
		return s.updateVisitFunc(ctx, id, visitedOn, comment)
	}
	s.t.Fatalf("UpdateVisit called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubVisitsStore) DeleteVisit(ctx context.Context, id int64) error {
	if s.deleteVisitFunc != nil {
		return s.deleteVisitFunc(ctx, id)
	}
	s.t.Fatalf("DeleteVisit called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubVisitsStore) ListVisits(ctx context.Context, locationID int64) ([]domain.Visit, error) {
	if s.listVisitsFunc != nil {
		return s.listVisitsFunc(ctx, locationID)
	}
	s.t.Fatalf("ListVisits called unexpectedly")
	return nil, errors.New("unexpected call")
}

type stubLinksStore struct {
	t *testing.T

	createLinkFunc func(context.Context, domain.Link) (domain.Link, error)
	getLinkFunc    func(context.Context, int64) (domain.Link, error)
	deleteLinkFunc func(context.Context, int64) error
	listLinksFunc  func(context.Context, int64) ([]domain.Link, error)
}

func (s *stubLinksStore) CreateLink(ctx context.Context, l domain.Link) (domain.Link, error) {
	if s.createLinkFunc != nil {
		return s.createLinkFunc(ctx, l)
	}
	s.t.Fatalf("CreateLink called unexpectedly")
	return domain.Link{}, errors.New("unexpected call")
}

func (s *stubLinksStore) GetLink(ctx context.Context, id int64) (domain.Link, error) {
	if s.getLinkFunc != nil {
		return s.getLinkFunc(ctx, id)
	}
	s.t.Fatalf("GetLink called unexpectedly")
	return domain.Link{}, errors.New("unexpected call")
}

func (s *stubLinksStore) DeleteLink(ctx context.Context, id int64) error {
	if s.deleteLinkFunc != nil {
		return s.deleteLinkFunc(ctx, id)
	}
	s.t.Fatalf("DeleteLink called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubLinksStore) ListLinks(ctx context.Context, locationID int64) ([]domain.Link, error) {
	if s.listLinksFunc != nil {
		return s.listLinksFunc(ctx, locationID)
	}
	s.t.Fatalf("ListLinks called unexpectedly")
	return nil, errors.New("unexpected call")
}

type stubPOIsStore struct {
	t *testing.T

	createPOIFunc func(context.Context, domain.POI) (domain.POI, error)
	getPOIFunc    func(context.Context, int64) (domain.POI, error)
	deletePOIFunc func(context.Context, int64) error
	listPOIsFunc  func(context.Context, int64) ([]domain.POI, error)
}

func (s *stubPOIsStore) CreatePOI(ctx context.Context, p domain.POI) (domain.POI, error) {
	if s.createPOIFunc != nil {
		return s.createPOIFunc(ctx, p)
	}
	s.t.Fatalf("CreatePOI called unexpectedly")
	return domain.POI{}, errors.New("unexpected call")
}

func (s *stubPOIsStore) GetPOI(ctx context.Context, id int64) (domain.POI, error) {
	if s.getPOIFunc != nil {
		return s.getPOIFunc(ctx, id)
	}
	s.t.Fatalf("GetPOI called unexpectedly")
	return domain.POI{}, errors.New("unexpected call")
}

func (s *stubPOIsStore) DeletePOI(ctx context.Context, id int64) error {
	if s.deletePOIFunc != nil {
		return s.deletePOIFunc(ctx, id)
	}
	s.t.Fatalf("DeletePOI called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubPOIsStore) ListPOIs(ctx context.Context, locationID int64) ([]domain.POI, error) {
	if s.listPOIsFunc != nil {
		return s.listPOIsFunc(ctx, locationID)
	}
	s.t.Fatalf("ListPOIs called unexpectedly")
	return nil, errors.New("unexpected call")
}
