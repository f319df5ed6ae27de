package environment

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"usta-bot/internal/config"
	"usta-bot/internal/notify"
	"usta-bot/internal/storage"
	"usta-bot/internal/stories/dispatch"
	"usta-bot/internal/stories/importer"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/stories/regions"
	"usta-bot/internal/stories/warehouse"
	"usta-bot/internal/telegram"
	"usta-bot/internal/telegram/cmds"
	"usta-bot/internal/telegram/flows/addmaster"
	"usta-bot/internal/telegram/flows/addproduct"
	"usta-bot/internal/telegram/flows/createorder"
	"usta-bot/internal/telegram/flows/importxlsx"
	"usta-bot/internal/telegram/flows/orderwork"
	"usta-bot/internal/telegram/flows/startlocation"
	"usta-bot/internal/telegram/states"
	"usta-bot/internal/workers"
	"usta-bot/internal/workers/sessionsweep"
	"usta-bot/internal/workers/staleorders"
)

type Services struct {
	TelegramRouter *telegram.Router
	WorkerService  *workers.Manager
}

func newServices(_ context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	if clients.TelegramBot == nil {
		return nil, errors.New("telegram bot не инициализирован")
	}
	bot := clients.TelegramBot

	catalog, err := regions.NewCatalog()
	if err != nil {
		return nil, errors.Wrap(err, "load region catalog")
	}

	// Создаем storage и доменные сервисы
	storageImpl := storage.New(clients.SQLiteDB.DB)
	relay := notify.NewRelay(bot, cfg.Telegram.AdminChatIDs, logger.WithGroup("notify"))

	mastersService := masters.NewService(storageImpl, catalog, time.Now)
	warehouseService := warehouse.NewService(storageImpl)
	ordersService := orders.NewService(
		storageImpl,
		warehouseService,
		mastersService,
		relay,
		orders.Config{
			LocationFreshness: cfg.Dispatch.LocationFreshness,
			WarrantyPeriod:    cfg.WarrantyPeriod,
		},
		time.Now,
		logger.WithGroup("orders"),
	)
	engine := dispatch.NewEngine(
		ordersService,
		mastersService,
		relay,
		dispatch.NewMemoryPending(),
		cfg.Dispatch.LocationFreshness,
		time.Now,
		logger.WithGroup("dispatch"),
	)
	stockImporter := importer.New(warehouseService, logger.WithGroup("import"))

	// Создаем StateManager
	stateManager := states.NewManager(time.Now)

	// Создаем AdminChecker
	adminChecker := telegram.NewAdminChecker(&cfg.Telegram)

	fl := telegram.Flows{
		CreateOrder: createorder.NewHandler(
			bot,
			stateManager,
			ordersService,
			engine,
			mastersService,
			warehouseService,
			catalog,
			logger,
		),
		AddMaster:     addmaster.NewHandler(bot, stateManager, mastersService, catalog, logger),
		AddProduct:    addproduct.NewHandler(bot, stateManager, warehouseService, logger),
		Import:        importxlsx.NewHandler(bot, stateManager, bot, stockImporter, logger),
		StartLocation: startlocation.NewHandler(bot, stateManager, mastersService, logger),
		OrderWork:     orderwork.NewHandler(bot, stateManager, ordersService, engine, logger),
	}

	commands := telegram.Commands{
		MyOrders:     cmds.NewMyOrdersCommand(bot, ordersService),
		Stock:        cmds.NewStockCommand(bot, warehouseService),
		Masters:      cmds.NewMastersCommand(bot, mastersService),
		RecentOrders: cmds.NewRecentOrdersCommand(bot, ordersService, mastersService),
		Stats:        cmds.NewStatsCommand(bot, storageImpl),
		Export:       cmds.NewExportCommand(bot, ordersService, logger, time.Now),
	}

	// Создаем роутер
	router := telegram.NewRouter(
		bot,
		stateManager,
		adminChecker,
		mastersService,
		engine,
		fl,
		commands,
		cfg.Dispatch.LocationFreshness,
		time.Now,
		logger.WithGroup("router"),
	)

	workerManager := workers.NewManager(
		logger.WithGroup("workers"),
		sessionsweep.NewWorker(stateManager, cfg.Workers.SessionSweepSchedule, cfg.SessionTTL, logger),
		staleorders.NewWorker(ordersService, relay, cfg.Workers.StaleOrdersSchedule, cfg.Workers.StaleOrderAfter, logger),
	)

	return &Services{
		TelegramRouter: router,
		WorkerService:  workerManager,
	}, nil
}
