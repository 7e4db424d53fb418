// Package di contains dependency injection tokens for the trading context.
package di

import (
	"github.com/redis/go-redis/v9"

	"github.com/fd1az/options-arb/business/trading/app"
	"github.com/fd1az/options-arb/business/trading/infra/postgres"
	"github.com/fd1az/options-arb/business/trading/infra/reporter"
	"github.com/fd1az/options-arb/internal/di"
	"github.com/fd1az/options-arb/internal/notify"
)

// Public service tokens - exposed to other modules
var (
	Coordinator = di.NewToken[*app.Coordinator]("trading.Coordinator")
	Runner      = di.NewToken[*app.Runner]("trading.Runner")
	Reporter    = di.NewToken[*reporter.MultiReporter]("trading.Reporter")
)

// Private dependency tokens - internal to trading module
var (
	Executors         = di.NewToken[app.Executors]("trading:executors")
	OpportunitySource = di.NewToken[app.OpportunitySource]("trading:opportunitySource")
	AdmissionLock     = di.NewToken[app.AdmissionLock]("trading:admissionLock")
	Notifier          = di.NewToken[*notify.Notifier]("trading:notifier")
	TUIReporter       = di.NewToken[*reporter.TUIReporter]("trading:tuiReporter")
	PostgresClient    = di.NewToken[*postgres.Client]("trading:postgres")
	RedisClient       = di.NewToken[*redis.Client]("trading:redis")
)

func GetCoordinator(c di.ServiceRegistry) *app.Coordinator {
	return di.GetToken(c, Coordinator)
}

func GetRunner(c di.ServiceRegistry) *app.Runner {
	return di.GetToken(c, Runner)
}

func GetReporter(c di.ServiceRegistry) *reporter.MultiReporter {
	return di.GetToken(c, Reporter)
}

func GetExecutors(c di.ServiceRegistry) app.Executors {
	return di.GetToken(c, Executors)
}

func GetOpportunitySource(c di.ServiceRegistry) app.OpportunitySource {
	return di.GetToken(c, OpportunitySource)
}

// GetAdmissionLock returns nil when redis is disabled.
func GetAdmissionLock(c di.ServiceRegistry) app.AdmissionLock {
	return di.GetToken(c, AdmissionLock)
}

func GetNotifier(c di.ServiceRegistry) *notify.Notifier {
	return di.GetToken(c, Notifier)
}

// GetTUIReporter returns nil outside TUI mode.
func GetTUIReporter(c di.ServiceRegistry) *reporter.TUIReporter {
	return di.GetToken(c, TUIReporter)
}

// GetPostgresClient returns nil when the audit store is disabled.
func GetPostgresClient(c di.ServiceRegistry) *postgres.Client {
	return di.GetToken(c, PostgresClient)
}

// GetRedisClient returns nil when the admission lock is disabled.
func GetRedisClient(c di.ServiceRegistry) *redis.Client {
	return di.GetToken(c, RedisClient)
}
