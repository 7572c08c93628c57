package service

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// CommandSubject is the last subject token the game client reads
// outbound commands from.
const CommandSubject = "command"

// Publisher is the part of a NATS connection the command sender uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// CommandMessage is published for every outbound command.
type CommandMessage struct {
	Tenant  string `json:"tenant"`
	Command string `json:"command"`
}

// NATSCommandSender hands commands to the game client on
// <prefix>.<tenant>.command.
type NATSCommandSender struct {
	conn   Publisher
	prefix string
}

// NewNATSCommandSender creates a command sender publishing through conn.
func NewNATSCommandSender(conn Publisher, prefix string) *NATSCommandSender {
	if prefix == "" {
		prefix = event.DefaultSubjectPrefix
	}
	return &NATSCommandSender{conn: conn, prefix: prefix}
}

// Subject returns the subject commands for tenant are published on.
func (s *NATSCommandSender) Subject(tenant string) string {
	return s.prefix + "." + event.SubjectToken(tenant) + "." + CommandSubject
}

// SendCommand implements CommandSender.
func (s *NATSCommandSender) SendCommand(ctx context.Context, tenant, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(CommandMessage{Tenant: tenant, Command: command})
	if err != nil {
		return fmt.Errorf("marshal command for %s: %w", tenant, err)
	}
	if err := s.conn.Publish(s.Subject(tenant), data); err != nil {
		return fmt.Errorf("publish command for %s: %w", tenant, err)
	}
	return nil
}

// LogCommandSender logs commands instead of sending them. It is used when
// no game client connection is wired in.
type LogCommandSender struct{}

// SendCommand implements CommandSender.
func (LogCommandSender) SendCommand(ctx context.Context, tenant, command string) error {
	logrus.WithField("tenant", tenant).Infof("send command: %s", command)
	return nil
}

// LogBanApplier logs bans instead of applying them. It is used when no ban
// API is configured.
type LogBanApplier struct{}

// ApplyBan implements BanApplier.
func (LogBanApplier) ApplyBan(ctx context.Context, tenant string, realm Realm, xuid, reason string) error {
	logrus.WithFields(logrus.Fields{
		"tenant": tenant,
		"realm":  realm.ID,
		"xuid":   xuid,
	}).Warnf("ban not applied, no ban API configured: %s", reason)
	return nil
}
