package service

import (
	"context"
	"fmt"

	"github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/service/social"
	"github.com/AccelByte/accelbyte-go-sdk/social-sdk/pkg/socialclient/user_statistic"
	"github.com/AccelByte/accelbyte-go-sdk/social-sdk/pkg/socialclientmodels"
	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/sirupsen/logrus"
)

// DefaultBanStatCode is the AccelByte statistic incremented per enforced ban.
const DefaultBanStatCode = "realm-guard-bans"

type StatisticService struct {
	statisticsService *social.UserStatisticService
	cfg               StatisticServiceConfig
}

type StatisticServiceConfig struct {
	Namespace string
}

func NewStatisticService(
	statisticsService *social.UserStatisticService,
	cfg StatisticServiceConfig,
) *StatisticService {
	return &StatisticService{
		statisticsService: statisticsService,
		cfg:               cfg,
	}
}

// IncrementStat implements StatIncrementer.
func (s *StatisticService) IncrementStat(ctx context.Context, userID, statCode string) error {
	input := &user_statistic.IncUserStatItemValueParams{
		Namespace: s.cfg.Namespace,
		UserID:    userID,
		StatCode:  statCode,
		Body: &socialclientmodels.StatItemInc{
			Inc: 1,
		},
	}
	input.SetContext(ctx)

	_, err := s.statisticsService.IncUserStatItemValueShort(input)
	if err != nil {
		return fmt.Errorf("failed to increment user %s statistic %s: %w", userID, statCode, err)
	}

	return nil
}

// BanStatRecorder is an event subscriber that counts successful bans in
// an AccelByte statistic owned by the tenant's configured user.
type BanStatRecorder struct {
	stats    StatIncrementer
	settings settings.Provider
	statCode string
}

// NewBanStatRecorder creates a recorder. An empty statCode uses DefaultBanStatCode.
func NewBanStatRecorder(stats StatIncrementer, provider settings.Provider, statCode string) *BanStatRecorder {
	if statCode == "" {
		statCode = DefaultBanStatCode
	}
	return &BanStatRecorder{stats: stats, settings: provider, statCode: statCode}
}

// Deliver implements event.Subscriber.
func (r *BanStatRecorder) Deliver(ctx context.Context, e event.Event) error {
	if e.Name != event.NameAutomodAction {
		return nil
	}
	if ok, _ := e.Payload["success"].(bool); !ok {
		return nil
	}
	if action, _ := e.Payload["action"].(string); action != "ban" {
		return nil
	}

	userID := r.settings.Get(e.Tenant).AccelByteUserID
	if userID == "" {
		logrus.WithField("tenant", e.Tenant).Debug("no accelbyte user configured, skipping ban statistic")
		return nil
	}

	return r.stats.IncrementStat(ctx, userID, r.statCode)
}
