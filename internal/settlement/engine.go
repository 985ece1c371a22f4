// Package settlement liquida uma aposta no spin: valida, sorteia sobre um
// snapshot da tabela e grava saldo + lançamento numa única transação
// serializável. Depois do commit emite a notificação de forma assíncrona.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/spin-wager-platform/internal/ledger"
	"github.com/radieske/spin-wager-platform/internal/notification"
	"github.com/radieske/spin-wager-platform/internal/outcome"
)

var (
	// entrada do cliente
	ErrInvalidStake    = errors.New("stake must be positive")
	ErrStakeTooLarge   = errors.New("stake exceeds maximum")
	ErrAccountNotFound = ledger.ErrAccountNotFound

	// regra de negócio; não é repetida
	ErrInsufficientFunds = errors.New("insufficient funds")

	// configuração da tabela
	ErrNoOutcomesAvailable = outcome.ErrNoOutcomesAvailable
	ErrInvalidWeights      = outcome.ErrInvalidWeights

	// transitórios; o chamador pode tentar de novo
	ErrSettlementConflict = errors.New("settlement conflict")
	ErrSettlementTimeout  = errors.New("settlement timeout")
)

type Config struct {
	MaxAttempts    int             // tentativas em conflito de serialização
	AttemptTimeout time.Duration   // prazo de cada tentativa
	RetryBackoff   time.Duration   // linear: backoff * tentativa
	NotifyTimeout  time.Duration   // prazo da emissão da notificação
	MaxStake       decimal.Decimal // zero = sem limite
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    5,
		AttemptTimeout: 3 * time.Second,
		RetryBackoff:   20 * time.Millisecond,
		NotifyTimeout:  2 * time.Second,
	}
}

// Result é o que o spin devolve ao cliente
type Result struct {
	AccountID    string          `json:"accountId"`
	Stake        decimal.Decimal `json:"stake"`
	NewBalance   decimal.Decimal `json:"newBalance"`
	OutcomeID    int64           `json:"outcomeId"`
	OutcomeIndex int             `json:"outcomeIndex"`
	Label        string          `json:"label"`
	Multiplier   decimal.Decimal `json:"multiplier"`
	WinAmount    decimal.Decimal `json:"winAmount"`
	NetChange    decimal.Decimal `json:"netChange"`
	Kind         ledger.Kind     `json:"kind"`
	EntryID      string          `json:"entryId"`
}

// Engine não guarda estado mutável por aposta; é seguro para uso concorrente
// desde que a RandSource também seja
type Engine struct {
	log      *zap.Logger
	store    ledger.Store
	outcomes outcome.Reader
	rand     outcome.RandSource
	sink     notification.Sink
	cfg      Config
	now      func() time.Time

	wg sync.WaitGroup

	OnSettled     func(kind string)   // métricas por tipo de lançamento
	OnRetry       func()              // métricas
	OnFailed      func(reason string) // métricas por motivo
	OnNotifyError func()              // métricas
}

// New monta o motor; sink nil desliga as notificações
func New(log *zap.Logger, store ledger.Store, outcomes outcome.Reader, src outcome.RandSource, sink notification.Sink, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = def.NotifyTimeout
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	}
	if src == nil {
		src = outcome.CryptoSource{}
	}
	return &Engine{
		log:      log,
		store:    store,
		outcomes: outcomes,
		rand:     src,
		sink:     sink,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Settle liquida uma aposta. Ou existe exatamente um commit com exatamente um
// lançamento, ou nada mudou.
func (e *Engine) Settle(ctx context.Context, accountID string, stake decimal.Decimal) (Result, error) {
	if err := e.validate(ctx, accountID, stake); err != nil {
		return Result{}, e.fail(accountID, stake, err)
	}

	var (
		res Result
		err error
	)
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		res, err = e.attempt(ctx, accountID, stake)
		if err == nil || !errors.Is(err, ledger.ErrSerialization) {
			break
		}
		if attempt == e.cfg.MaxAttempts {
			err = fmt.Errorf("%w: %d attempts: %v", ErrSettlementConflict, attempt, err)
			break
		}

		if e.OnRetry != nil {
			e.OnRetry()
		}
		e.log.Debug("settlement conflict, retrying",
			zap.String("accountId", accountID), zap.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(e.cfg.RetryBackoff * time.Duration(attempt)):
		}
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}
	}
	if err != nil {
		return Result{}, e.fail(accountID, stake, err)
	}

	if e.OnSettled != nil {
		e.OnSettled(string(res.Kind))
	}
	e.log.Info("spin settled",
		zap.String("accountId", accountID),
		zap.String("stake", stake.String()),
		zap.String("label", res.Label),
		zap.String("winAmount", res.WinAmount.String()),
		zap.String("newBalance", res.NewBalance.String()),
		zap.String("entryId", res.EntryID),
	)

	e.notify(ctx, res)
	return res, nil
}

// validate roda antes de qualquer transação
func (e *Engine) validate(ctx context.Context, accountID string, stake decimal.Decimal) error {
	if !stake.IsPositive() {
		return ErrInvalidStake
	}
	if e.cfg.MaxStake.IsPositive() && stake.GreaterThan(e.cfg.MaxStake) {
		return fmt.Errorf("%w: %s", ErrStakeTooLarge, e.cfg.MaxStake)
	}
	if strings.TrimSpace(accountID) == "" {
		return ErrAccountNotFound
	}
	if _, err := e.store.Balance(ctx, accountID); err != nil {
		return err
	}
	return nil
}

// attempt é uma unidade de trabalho completa com prazo próprio
func (e *Engine) attempt(ctx context.Context, accountID string, stake decimal.Decimal) (Result, error) {
	actx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
	defer cancel()

	var res Result
	err := e.store.WithinTx(actx, func(ctx context.Context, tx ledger.Tx) error {
		balance, err := tx.Balance(ctx, accountID)
		if err != nil {
			return err
		}
		if balance.LessThan(stake) {
			return ErrInsufficientFunds
		}

		// um snapshot por tentativa, lido depois do saldo
		snapshot, err := e.outcomes.Visible(ctx)
		if err != nil {
			return fmt.Errorf("read outcomes: %w", err)
		}
		sel, err := outcome.Select(snapshot, e.rand)
		if err != nil {
			return err
		}

		winAmount := stake.Mul(sel.Outcome.Multiplier)
		netChange := winAmount.Sub(stake)
		newBalance := balance.Add(netChange)

		kind := ledger.KindWagerLoss
		if winAmount.IsPositive() {
			kind = ledger.KindWagerWin
		}

		entry := ledger.NewEntry(accountID, kind, netChange, e.now())
		if err := tx.SetBalance(ctx, accountID, newBalance); err != nil {
			return err
		}
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}

		res = Result{
			AccountID:    accountID,
			Stake:        stake,
			NewBalance:   newBalance,
			OutcomeID:    sel.Outcome.ID,
			OutcomeIndex: sel.Index,
			Label:        sel.Outcome.Label,
			Multiplier:   sel.Outcome.Multiplier,
			WinAmount:    winAmount,
			NetChange:    netChange,
			Kind:         kind,
			EntryID:      entry.ID,
		}
		return nil
	})
	if err != nil {
		// prazo estourado (da tentativa ou herdado do chamador) vira timeout;
		// cancelamento segue como está
		if errors.Is(actx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: %v", ErrSettlementTimeout, err)
		}
		return Result{}, err
	}
	return res, nil
}

// fail registra a falha com o nível adequado e devolve o erro inalterado
func (e *Engine) fail(accountID string, stake decimal.Decimal, err error) error {
	reason := Reason(err)
	if e.OnFailed != nil {
		e.OnFailed(reason)
	}

	fields := []zap.Field{
		zap.String("accountId", accountID),
		zap.String("stake", stake.String()),
		zap.String("reason", reason),
		zap.Error(err),
	}
	switch reason {
	case "invalid_stake", "stake_too_large", "account_not_found", "insufficient_funds":
		e.log.Info("spin rejected", fields...)
	case "conflict", "timeout", "canceled":
		e.log.Warn("spin not settled", fields...)
	default:
		// tabela mal configurada ou falha de infraestrutura
		e.log.Error("spin failed", fields...)
	}
	return err
}

// Reason classifica o erro para métricas e logs
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidStake):
		return "invalid_stake"
	case errors.Is(err, ErrStakeTooLarge):
		return "stake_too_large"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrNoOutcomesAvailable):
		return "no_outcomes"
	case errors.Is(err, ErrInvalidWeights):
		return "invalid_weights"
	case errors.Is(err, ErrSettlementConflict):
		return "conflict"
	case errors.Is(err, ErrSettlementTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "internal"
}

// notify dispara a notificação fora do caminho da resposta.
// Usa um contexto desligado do request: o cliente pode já ter ido embora.
func (e *Engine) notify(ctx context.Context, res Result) {
	if e.sink == nil {
		return
	}
	n := notification.ForSettlement(res.AccountID, res.Label, res.Stake, res.WinAmount, e.now())

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.NotifyTimeout)
		defer cancel()

		if err := e.sink.Notify(nctx, n); err != nil {
			if e.OnNotifyError != nil {
				e.OnNotifyError()
			}
			e.log.Warn("notification failed",
				zap.String("accountId", res.AccountID),
				zap.String("entryId", res.EntryID),
				zap.Error(err))
		}
	}()
}

// Wait bloqueia até as notificações em andamento terminarem
func (e *Engine) Wait() {
	e.wg.Wait()
}
