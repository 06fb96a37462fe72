package mocks

import "github.com/stretchr/testify/mock"

type MockMailManager struct {
	mock.Mock
}

func (m *MockMailManager) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockMailManager) SendMatchingRequestMail(email, receiverNickname, senderNickname string) error {
	args := m.Called(email, receiverNickname, senderNickname)
	return args.Error(0)
}

func (m *MockMailManager) SendMatchConfirmedMail(email, senderNickname, receiverNickname string) error {
	args := m.Called(email, senderNickname, receiverNickname)
	return args.Error(0)
}
