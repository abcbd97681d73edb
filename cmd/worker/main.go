// Package main - точка входа для фоновых процессов (Worker) Taker Fitness Hub.
//
// Worker отвечает за периодические задачи:
// - Генерация ежедневных миссий для всех охотников
// - Ночной rollover: истечение миссий, штрафы, сброс стриков
// - Пересчёт лидерборда в Redis
// - Обработка доменных событий (level up, daily clear, рейды, тренировки)
//
// Философия: "Стань сильнее, чем вчера" - Worker следит за тем, чтобы
// каждый день у охотника была свежая доска миссий, а прогресс и ранги
// всегда отражали реальное положение дел.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/taker-hub/taker-fitness-hub/config"
	"github.com/taker-hub/taker-fitness-hub/internal/application/command"
	"github.com/taker-hub/taker-fitness-hub/internal/application/eventhandler"
	"github.com/taker-hub/taker-fitness-hub/internal/application/saga"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/leaderboard"
	"github.com/taker-hub/taker-fitness-hub/internal/infrastructure/messaging"
	"github.com/taker-hub/taker-fitness-hub/internal/infrastructure/persistence/postgres"
	"github.com/taker-hub/taker-fitness-hub/internal/infrastructure/persistence/redis"
	"github.com/taker-hub/taker-fitness-hub/internal/infrastructure/scheduler"
	"github.com/taker-hub/taker-fitness-hub/internal/infrastructure/scheduler/jobs"
	"github.com/taker-hub/taker-fitness-hub/internal/infrastructure/service"
	"github.com/taker-hub/taker-fitness-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	// .env файл опционален: в production конфигурация приходит из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Taker Fitness Hub Worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// Проверяем соединение
	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (лидерборд)
	// ─────────────────────────────────────────────────────────────────────────
	// Рейтинг живёт в Redis sorted set. Без Redis worker продолжает работать:
	// ProgressTracker пропускает обновление счёта, rebuild-задача не ставится.
	var leaderboardRepo leaderboard.Repository
	var redisCache *redis.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...", "addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))

		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		if cfg.Redis.PoolSize > 0 {
			redisCfg.PoolSize = cfg.Redis.PoolSize
		}
		if cfg.Redis.MinIdleConns > 0 {
			redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		}
		if cfg.Redis.DialTimeout > 0 {
			redisCfg.DialTimeout = cfg.Redis.DialTimeout
		}
		if cfg.Redis.ReadTimeout > 0 {
			redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		}
		if cfg.Redis.WriteTimeout > 0 {
			redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
		}

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, leaderboard disabled", "error", err)
		} else {
			redisCache = cache
			defer func() {
				log.Info("closing Redis connection...")
				_ = redisCache.Close()
			}()

			// Circuit breaker на Redis-границе: при сбоях Redis worker
			// быстро деградирует вместо накопления таймаутов.
			// ErrNotRanked - доменный ответ, а не сбой инфраструктуры.
			breaker := circuitbreaker.LeaderboardBreaker(
				func(name string, from, to circuitbreaker.State) {
					log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
				},
				circuitbreaker.WithIsFailure(func(err error) bool {
					return err != nil && !errors.Is(err, leaderboard.ErrNotRanked)
				}),
			)
			leaderboardRepo = redis.NewGuardedLeaderboard(redis.NewLeaderboardRepository(redisCache), breaker)
			log.Info("Redis connection established")
		}
	} else {
		log.Info("Redis disabled, leaderboard updates will be skipped")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	hunterRepo := postgres.NewHunterRepository(dbConn)
	historyRepo := postgres.NewHistoryRepository(dbConn)
	missionRepo := postgres.NewMissionRepository(dbConn)
	raidRepo := postgres.NewRaidRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	// Конкуренцией и ретраями управляет dispatcher, шина доставляет синхронно
	eventBusConfig.AsyncMode = false

	// При живом Redis события уходят и в Pub/Sub-канал: несколько
	// worker-инстансов видят общий поток. Без Redis шина остаётся локальной.
	var eventBus messaging.Bus
	if redisCache != nil {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:   redisCache.Client(),
			LocalBus: eventBusConfig,
			Logger:   log,
		})
		if err != nil {
			return fmt.Errorf("failed to start redis event bus: %w", err)
		}
		eventBus = redisBus
	} else {
		eventBus = messaging.NewInMemoryEventBus(eventBusConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application services...")
	idGen := service.NewUUIDGenerator()

	tracker := command.NewProgressTracker(hunterRepo, historyRepo, leaderboardRepo, eventBus)

	achievements, err := saga.NewAchievementFlowBuilder().
		WithHunterRepo(hunterRepo).
		WithAchievementRepo(achievementRepo).
		WithEventBus(eventBus).
		WithIDGenerator(idGen).
		WithLogger(log).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build achievement flow: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ПОДПИСКА ОБРАБОТЧИКОВ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("subscribing event handlers...")

	onLevelUp := eventhandler.NewOnLevelUpHandler(raidRepo, achievements, eventBus, log)
	onDailyClear := eventhandler.NewOnDailyClearHandler(tracker, raidRepo, achievements, eventBus, log, eventhandler.DefaultDailyClearConfig())
	onRaidCompleted := eventhandler.NewOnRaidCompletedHandler(tracker, raidRepo, historyRepo, achievements, log)

	workoutConfig := eventhandler.DefaultWorkoutLoggedConfig()
	workoutConfig.AdvanceRaids = cfg.Features.IsEnabled(config.FeatureGamificationRaids, nil)
	workoutConfig.CheckAchievements = cfg.Features.IsEnabled(config.FeatureGamificationAchievements, nil)
	onWorkoutLogged := eventhandler.NewOnWorkoutLoggedHandler(raidRepo, achievements, eventBus, log, workoutConfig)

	// Dispatcher добавляет поверх шины retry, middleware и парковку событий,
	// чьи обработчики исчерпали попытки
	dispatcher := messaging.NewDispatcherBuilder(eventBus).
		WithLogger(log).
		Build()
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	if err := dispatcher.Register(onLevelUp.EventType(), "on_level_up", onLevelUp.Handle); err != nil {
		return fmt.Errorf("failed to register level up handler: %w", err)
	}
	if err := dispatcher.Register(onDailyClear.EventType(), "on_daily_clear", onDailyClear.Handle); err != nil {
		return fmt.Errorf("failed to register daily clear handler: %w", err)
	}
	if err := dispatcher.Register(onRaidCompleted.EventType(), "on_raid_completed", onRaidCompleted.Handle); err != nil {
		return fmt.Errorf("failed to register raid completed handler: %w", err)
	}
	if err := dispatcher.Register(onWorkoutLogged.EventType(), "on_workout_logged", onWorkoutLogged.Handle); err != nil {
		return fmt.Errorf("failed to register workout logged handler: %w", err)
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	defer func() {
		log.Info("stopping event dispatcher...")
		_ = dispatcher.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ПЛАНИРОВЩИК ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	schedulerConfig := scheduler.DefaultSchedulerConfig()
	schedulerConfig.Logger = log
	schedulerConfig.Timezone = cfg.App.Location
	sched := scheduler.NewScheduler(schedulerConfig)

	if cfg.Scheduler.Enabled {
		log.Info("registering scheduled jobs...")

		// Ночной rollover: сначала закрываем вчерашний день...
		rolloverConfig := jobs.DefaultDailyRolloverConfig()
		rolloverConfig.ApplyPenalties = cfg.Features.PenaltiesEnabled()
		if cfg.Scheduler.JobTimeout > 0 {
			rolloverConfig.Timeout = cfg.Scheduler.JobTimeout
		}
		rolloverJob := jobs.NewDailyRolloverJob(hunterRepo, missionRepo, tracker, eventBus, log, rolloverConfig)
		rolloverCron, err := scheduler.ParseCronExpression(
			fmt.Sprintf("%d %d * * *", cfg.Scheduler.RolloverMinute, cfg.Scheduler.RolloverHour))
		if err != nil {
			return fmt.Errorf("invalid rollover schedule: %w", err)
		}
		if err := sched.Register(rolloverJob, rolloverCron); err != nil {
			return fmt.Errorf("failed to register rollover job: %w", err)
		}

		// ...затем выдаём свежие миссии
		missionsConfig := jobs.DefaultGenerateDailyMissionsConfig()
		if cfg.Scheduler.JobTimeout > 0 {
			missionsConfig.Timeout = cfg.Scheduler.JobTimeout
		}
		missionsJob := jobs.NewGenerateDailyMissionsJob(hunterRepo, missionRepo, idGen, log, missionsConfig)
		missionsCron, err := scheduler.ParseCronExpression(
			fmt.Sprintf("%d %d * * *", cfg.Scheduler.MissionsMinute, cfg.Scheduler.MissionsHour))
		if err != nil {
			return fmt.Errorf("invalid missions schedule: %w", err)
		}
		if err := sched.Register(missionsJob, missionsCron); err != nil {
			return fmt.Errorf("failed to register missions job: %w", err)
		}

		// Пересборка лидерборда - только при живом Redis
		if leaderboardRepo != nil {
			rebuildConfig := jobs.DefaultRebuildLeaderboardConfig()
			if cfg.Scheduler.JobTimeout > 0 {
				rebuildConfig.Timeout = cfg.Scheduler.JobTimeout
			}
			rebuildJob := jobs.NewRebuildLeaderboardJob(hunterRepo, leaderboardRepo, log, rebuildConfig)
			rebuildSchedule := scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)
			if err := sched.Register(rebuildJob, rebuildSchedule); err != nil {
				return fmt.Errorf("failed to register leaderboard rebuild job: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()

		// Если воркер поднялся после даунтайма, довыдаём сегодняшние доски
		// сразу, не дожидаясь следующей полуночи. Генерация идемпотентна.
		if _, err := sched.RunNow(ctx, missionsJob.Name()); err != nil {
			log.Warn("startup mission backfill failed", "error", err)
		}
	} else {
		log.Warn("scheduler is disabled, no background jobs will run")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Taker Fitness Hub Worker is running",
		"timezone", cfg.App.Timezone,
		"scheduler", cfg.Scheduler.Enabled,
	)

	// Ожидаем сигнал завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	// Начинаем graceful shutdown: deferred закрытия выполнятся в обратном порядке
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// parseLogLevel преобразует строковый уровень в slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
