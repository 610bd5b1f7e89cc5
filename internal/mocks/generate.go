// Package mocks provides gomock mocks of the authentication ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockBackend(ctrl)
//	backend.EXPECT().RenewToken(gomock.Any(), gomock.Any()).Return(ports.SessionUpdate{}, nil)
package mocks

// Generate mocks for every interface in internal/ports:
// AttemptStore, Backend, Notifier, Navigator, ProfileStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/target/momoino-ui/internal/ports AttemptStore,Backend,Notifier,Navigator,ProfileStore
