// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mzare/ecotrace/internal/adapters/genai"
	eventqueue "github.com/mzare/ecotrace/internal/adapters/mq/queue"
	workerpool "github.com/mzare/ecotrace/internal/adapters/mq/worker"
	"github.com/mzare/ecotrace/internal/adapters/predictor"
	repository "github.com/mzare/ecotrace/internal/adapters/repository"
	"github.com/mzare/ecotrace/internal/domain/alternatives"
	"github.com/mzare/ecotrace/internal/domain/dedupe"
	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/internal/domain/scoring"
	"github.com/mzare/ecotrace/internal/domain/streak"
	"github.com/mzare/ecotrace/internal/domain/types"
	"github.com/mzare/ecotrace/pkg/logger"
	"github.com/mzare/ecotrace/pkg/metrics"
)

// userLockStripes is the number of mutexes serializing purchase
// submissions. Two users only contend when their ids hash to the same
// stripe; one user's submissions are always serialized.
const userLockStripes = 64

// Service implements the API dependencies for the footprint system.
type Service struct {
	mu sync.RWMutex

	// Core components
	calculator *scoring.Calculator
	corpus     repository.CorpusStore
	ledger     repository.Ledger
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool
	insights   genai.InsightClient
	bands      predictor.BandPredictor

	userLocks [userLockStripes]sync.Mutex

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	dbPath           string
	tablesPath       string
	insightEndpoint  string
	insightModel     string
	insightTimeout   time.Duration
	predictEndpoint  string
	predictTimeout   time.Duration
	rebuildOnStartup bool

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingestion worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDBPath sets the purchase ledger database path.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithTablesPath overrides the embedded scoring tables with a file.
func WithTablesPath(path string) Option {
	return func(s *Service) {
		s.tablesPath = path
	}
}

// WithInsightClient configures the advisory collaborator.
func WithInsightClient(endpoint, modelName string, timeout time.Duration) Option {
	return func(s *Service) {
		s.insightEndpoint = endpoint
		s.insightModel = modelName
		if timeout > 0 {
			s.insightTimeout = timeout
		}
	}
}

// WithPredictor configures the external band classifier.
func WithPredictor(endpoint string, timeout time.Duration) Option {
	return func(s *Service) {
		s.predictEndpoint = endpoint
		if timeout > 0 {
			s.predictTimeout = timeout
		}
	}
}

// WithStreakRebuild enables replaying the ledger into the streak cache
// on startup.
func WithStreakRebuild(enabled bool) Option {
	return func(s *Service) {
		s.rebuildOnStartup = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU() * 2,
		queueSize:      100000,
		dedupeSize:     50000,
		dbPath:         "ecotrace.db",
		insightModel:   "gemini-1.5-flash",
		insightTimeout: 8 * time.Second,
		predictTimeout: 2 * time.Second,
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting footprint service...")

	tables, err := s.loadTables()
	if err != nil {
		return fmt.Errorf("load scoring tables: %w", err)
	}
	s.calculator = scoring.NewCalculator(tables)

	ledger, err := repository.OpenLedger(ctx, s.dbPath)
	if err != nil {
		return fmt.Errorf("open purchase ledger: %w", err)
	}
	s.ledger = ledger

	if s.rebuildOnStartup {
		n, err := ledger.RebuildStreaks(ctx)
		if err != nil {
			_ = ledger.Close()
			return fmt.Errorf("rebuild streak cache: %w", err)
		}
		s.logger.Info(ctx, "streak cache rebuilt from ledger", logger.Int("users", n))
	}

	s.corpus = repository.NewTreapCorpus(ctx)
	s.deduper = dedupe.New(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.insights = genai.NewClient(
		genai.WithEndpoint(s.insightEndpoint),
		genai.WithModel(s.insightModel),
		genai.WithTimeout(s.insightTimeout),
	)
	s.bands = predictor.NewClient(
		func(attrs model.ProductAttributes) model.Band {
			return s.calculator.Score(attrs).Band
		},
		predictor.WithEndpoint(s.predictEndpoint),
		predictor.WithTimeout(s.predictTimeout),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.calculator, s.corpus)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "footprint service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("dbPath", s.dbPath),
	)
	return nil
}

func (s *Service) loadTables() (*scoring.Tables, error) {
	if s.tablesPath != "" {
		return scoring.LoadTablesFromFile(s.tablesPath)
	}
	return scoring.LoadTables()
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping footprint service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}
	if s.ledger != nil {
		_ = s.ledger.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "footprint service stopped")
}

// SeenAndRecord atomically checks whether an event id was seen and
// records it if not. Returns true if the event was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes an event id from the seen set, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a product ingestion event for asynchronous scoring.
// Returns false on backpressure.
func (s *Service) Enqueue(ctx context.Context, e model.IngestEvent) bool {
	ok := s.eventQueue.Enqueue(ctx, e)
	if ok {
		metrics.UpdateQueueSize(s.eventQueue.Len(ctx))
	}
	return ok
}

// ScoreProduct computes the CF score for raw attributes synchronously.
func (s *Service) ScoreProduct(ctx context.Context, attrs model.ProductAttributes) types.ScoreResult {
	score := s.calculator.Score(attrs)
	metrics.RecordScoreComputed()
	return types.ScoreResult{
		CFScore:    score.Value,
		CFCategory: string(score.Band),
	}
}

// PredictBand classifies raw attributes via the external classifier,
// falling back to the deterministic banding. The score value always
// comes from the local calculator.
func (s *Service) PredictBand(ctx context.Context, attrs model.ProductAttributes) types.ScoreResult {
	score := s.calculator.Score(attrs)
	band := s.bands.Predict(ctx, attrs)
	return types.ScoreResult{
		CFScore:    score.Value,
		CFCategory: string(band),
	}
}

// SubmitPurchase records a purchase and applies the streak transition.
// The ledger append and the streak update commit in one transaction;
// submissions for the same user are serialized.
func (s *Service) SubmitPurchase(ctx context.Context, userID, productID string, attrs model.ProductAttributes, choice model.Choice) (types.PurchaseAck, error) {
	if !choice.Valid() {
		return types.PurchaseAck{}, fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}

	lock := &s.userLocks[stripeFor(userID)]
	lock.Lock()
	defer lock.Unlock()

	score := s.calculator.Score(attrs)
	metrics.RecordScoreComputed()

	current, err := s.ledger.Streak(ctx, userID)
	if err != nil {
		return types.PurchaseAck{}, fmt.Errorf("read streak: %w", err)
	}
	next, rewarded := streak.Transition(current, choice)

	rec := model.PurchaseRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		ProductID:  productID,
		TS:         time.Now().UTC(),
		Attributes: attrs,
		Score:      score,
		Choice:     choice,
	}
	if err := s.ledger.AppendWithStreak(ctx, rec, next); err != nil {
		return types.PurchaseAck{}, fmt.Errorf("record purchase: %w", err)
	}

	metrics.RecordPurchaseRecorded(string(choice))
	if choice == model.ChoiceOriginal && current > 0 {
		metrics.RecordStreakReset()
	}

	ack := types.PurchaseAck{
		UserID:        userID,
		ProductID:     productID,
		CFScore:       score.Value,
		CFCategory:    string(score.Band),
		CurrentStreak: next,
		RewardGranted: rewarded,
		CreditsTotal:  streak.CreditsTotal(next),
	}
	if rewarded {
		ack.RewardMessage = streak.RewardMessage(next)
		metrics.RecordRewardGranted()
		s.logger.Info(ctx, "reward granted",
			logger.String("userID", userID),
			logger.Int("streak", next),
		)
	}
	return ack, nil
}

func stripeFor(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % userLockStripes)
}

// Alternatives returns up to limit greener products from the same
// category as the given product, most sustainable first. An unknown
// product yields an empty list.
func (s *Service) Alternatives(ctx context.Context, productID string, limit int) []types.ProductEntry {
	ref, err := s.corpus.GetByID(ctx, productID)
	if err != nil {
		return []types.ProductEntry{}
	}
	pool := s.corpus.FilterByCategory(ctx, ref.Attributes.CategoryCode)
	alts := alternatives.Find(productID, pool, limit)

	out := make([]types.ProductEntry, 0, len(alts))
	for _, p := range alts {
		out = append(out, toEntry(p, 0))
	}
	return out
}

// RankOf returns the sustainability rank of a corpus product. Rank 1 is
// the greenest.
func (s *Service) RankOf(ctx context.Context, productID string) (types.ProductEntry, error) {
	ranked, err := s.corpus.Rank(ctx, productID)
	if err != nil {
		return types.ProductEntry{}, err
	}
	return toEntry(ranked.Product, ranked.Rank), nil
}

// Greenest returns the n lowest-footprint corpus products in rank order.
func (s *Service) Greenest(ctx context.Context, n int) ([]types.ProductEntry, error) {
	products, err := s.corpus.GreenestN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.ProductEntry, 0, len(products))
	for i, p := range products {
		out = append(out, toEntry(p, i+1))
	}
	return out, nil
}

// ProductsByBrand returns up to limit corpus products of a brand
// (case-insensitive), oldest first. Filtered listings keep corpus
// insertion order, so entries carry no rank.
func (s *Service) ProductsByBrand(ctx context.Context, brand string, limit int) []types.ProductEntry {
	products := s.corpus.FilterByBrand(ctx, brand, limit)
	out := make([]types.ProductEntry, 0, len(products))
	for _, p := range products {
		out = append(out, toEntry(p, 0))
	}
	return out
}

// ProductsByBand returns up to limit corpus products in a footprint
// band, oldest first.
func (s *Service) ProductsByBand(ctx context.Context, band model.Band, limit int) []types.ProductEntry {
	products := s.corpus.FilterByBand(ctx, band, limit)
	out := make([]types.ProductEntry, 0, len(products))
	for _, p := range products {
		out = append(out, toEntry(p, 0))
	}
	return out
}

// GetProduct returns a scored corpus product by id.
func (s *Service) GetProduct(ctx context.Context, productID string) (types.ProductEntry, error) {
	p, err := s.corpus.GetByID(ctx, productID)
	if err != nil {
		return types.ProductEntry{}, err
	}
	return toEntry(p, 0), nil
}

// StreakOf returns the gamification state for a user. Unknown users
// have a zero streak, not an error.
func (s *Service) StreakOf(ctx context.Context, userID string) (types.StreakState, error) {
	n, err := s.ledger.Streak(ctx, userID)
	if err != nil {
		return types.StreakState{}, fmt.Errorf("read streak: %w", err)
	}
	return types.StreakState{
		UserID:        userID,
		CurrentStreak: n,
		CreditsTotal:  streak.CreditsTotal(n),
	}, nil
}

// History returns a user's purchase history, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]types.PurchaseEntry, error) {
	records, err := s.ledger.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	out := make([]types.PurchaseEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, types.PurchaseEntry{
			ProductID:  rec.ProductID,
			TS:         rec.TS.UTC().Format(time.RFC3339Nano),
			Choice:     string(rec.Choice),
			CFScore:    rec.Score.Value,
			CFCategory: string(rec.Score.Band),
		})
	}
	return out, nil
}

// Recommendations produces advisory insights for a user considering a
// corpus product, informed by their history and the greener
// alternatives.
func (s *Service) Recommendations(ctx context.Context, userID, productID string, limit int) (types.Insights, error) {
	product, err := s.corpus.GetByID(ctx, productID)
	if err != nil {
		return types.Insights{}, err
	}
	history, err := s.ledger.History(ctx, userID)
	if err != nil {
		return types.Insights{}, fmt.Errorf("read history: %w", err)
	}
	pool := s.corpus.FilterByCategory(ctx, product.Attributes.CategoryCode)
	alts := alternatives.Find(productID, pool, limit)

	return s.insights.Recommend(ctx, genai.Request{
		UserID:       userID,
		Product:      product,
		History:      history,
		Alternatives: alts,
	}), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		corpusSize := s.corpus.Count(ctx)
		stats["queueLength"] = queueLen
		stats["corpusSize"] = corpusSize
		stats["dedupeTracked"] = s.Size()

		if n, err := s.ledger.UserCount(ctx); err == nil {
			stats["trackedUsers"] = n
			metrics.UpdateTrackedUsers(n)
		}
		if n, err := s.ledger.PurchaseCount(ctx); err == nil {
			stats["totalPurchases"] = n
		}

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateCorpusSize(corpusSize)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func toEntry(p model.Product, rank int) types.ProductEntry {
	return types.ProductEntry{
		Rank:         rank,
		ProductID:    p.ProductID,
		CategoryCode: p.Attributes.CategoryCode,
		Brand:        p.Attributes.Brand,
		Price:        p.Attributes.Price,
		CFScore:      p.Score.Value,
		CFCategory:   string(p.Score.Band),
	}
}
