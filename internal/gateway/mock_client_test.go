package gateway

import (
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Open() error {
	return m.Called().Error(0)
}

func (m *mockClient) Close() error {
	return m.Called().Error(0)
}

func (m *mockClient) AddHandler(handler any) func() {
	args := m.Called(handler)
	if remove, ok := args.Get(0).(func()); ok {
		return remove
	}
	return func() {}
}

func (m *mockClient) Channel(channelID uint64) (*discordgo.Channel, error) {
	args := m.Called(channelID)
	ch, _ := args.Get(0).(*discordgo.Channel)
	return ch, args.Error(1)
}

func (m *mockClient) Message(channelID, messageID uint64) (*discordgo.Message, error) {
	args := m.Called(channelID, messageID)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

func (m *mockClient) SendMessage(channelID uint64, content string) error {
	return m.Called(channelID, content).Error(0)
}
