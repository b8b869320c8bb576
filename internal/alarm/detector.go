package alarm

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/recurrence"
	"github.com/magabrotheeeer/autopay-alert/internal/lib/sl"
	"github.com/magabrotheeeer/autopay-alert/internal/metrics"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// TestAlarmID — id синтетической подписки, которую поднимает TestAlarm.
const TestAlarmID = "test-alarm"

// Source — чтение идентичностей, профилей и подписок из хранилища.
type Source interface {
	ListIdentities(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	ListSubscriptions(ctx context.Context, uid string) ([]*models.Subscription, error)
}

// Publisher доставляет события о новых будильниках во внешнюю систему.
type Publisher interface {
	Publish(ctx context.Context, message any) error
}

// Event публикуется для каждой подписки, впервые попавшей в активные будильники.
type Event struct {
	UserUID         string          `json:"user_uid"`
	SubscriptionID  string          `json:"subscription_id"`
	Name            string          `json:"name"`
	Cost            decimal.Decimal `json:"cost"`
	Currency        string          `json:"currency"`
	NextBillingDate string          `json:"next_billing_date"`
	DaysUntilDue    int             `json:"days_until_due"`
	RaisedAt        time.Time       `json:"raised_at"`
	Test            bool            `json:"test,omitempty"`
}

// Notice — временное уведомление о подписках среднего приоритета.
type Notice struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Options настраивает Detector. Нулевые поля заменяются значениями по умолчанию.
type Options struct {
	Interval    time.Duration
	Window      Window
	NoticeTTL   time.Duration
	HorizonDays int
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = time.Minute
	}
	if len(o.Window.Hours) == 0 {
		o.Window.Hours = DefaultWindow().Hours
	}
	if o.Window.Width <= 0 {
		o.Window.Width = time.Minute
	}
	if o.NoticeTTL <= 0 {
		o.NoticeTTL = 8 * time.Second
	}
	if o.HorizonDays <= 0 {
		o.HorizonDays = DefaultHorizonDays
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type identityState struct {
	active *ActiveSet
	notice *Notice
	// fired — в каком окне подписка уже срабатывала; повторно в том же окне не срабатывает.
	fired map[string]string
}

// Detector периодически проверяет подписки всех идентичностей.
// Проход детектора и изменения активных будильников со стороны пользователя
// выполняются под одним мьютексом, поэтому продление не может гоняться с проверкой.
type Detector struct {
	log       *slog.Logger
	source    Source
	publisher Publisher
	metrics   *metrics.Metrics
	opts      Options
	onChange  func(uid string)

	tickMu sync.Mutex
	mu     sync.Mutex
	states map[string]*identityState
}

// New создаёт Detector. publisher и m могут быть nil.
func New(log *slog.Logger, source Source, publisher Publisher, m *metrics.Metrics, opts Options) *Detector {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Detector{
		log:       log.With(slog.String("component", "alarm")),
		source:    source,
		publisher: publisher,
		metrics:   m,
		opts:      opts.withDefaults(),
		states:    make(map[string]*identityState),
	}
}

// OnChange регистрирует функцию, вызываемую после изменения будильников или уведомления.
// Вызывать до Run.
func (d *Detector) OnChange(fn func(uid string)) {
	d.onChange = fn
}

// Run выполняет проход сразу и затем каждые Interval, пока ctx не отменён.
// Ошибки прохода логируются, следующая попытка — на следующем тике.
func (d *Detector) Run(ctx context.Context) {
	d.log.Info("alarm detector started",
		slog.Duration("interval", d.opts.Interval),
		slog.Any("hours", d.opts.Window.Hours),
		slog.Duration("width", d.opts.Window.Width))

	_ = d.Tick(ctx)

	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("alarm detector stopped")
			return
		case <-ticker.C:
			_ = d.Tick(ctx)
		}
	}
}

// Tick выполняет один проход по всем идентичностям. Проходы не пересекаются.
func (d *Detector) Tick(ctx context.Context) error {
	const op = "alarm.Tick"
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	now := d.opts.Now()
	uids, err := d.source.ListIdentities(ctx)
	if err != nil {
		d.metrics.AlarmTickFailures.Inc()
		d.log.Error("failed to list identities", slog.String("op", op), sl.Err(err))
		return err
	}

	var failed int
	for _, uid := range uids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := d.checkIdentity(ctx, uid, now); err != nil {
			failed++
			d.log.Error("failed to check identity",
				slog.String("op", op), slog.String("user_uid", uid), sl.Err(err))
		}
	}
	if failed > 0 {
		d.metrics.AlarmTickFailures.Inc()
	}
	d.metrics.AlarmTicks.Inc()
	return nil
}

func (d *Detector) checkIdentity(ctx context.Context, uid string, now time.Time) error {
	profile, err := d.source.GetProfile(ctx, uid)
	if errors.Is(err, models.ErrNotFound) {
		p := models.DefaultProfile(uid)
		profile, err = &p, nil
	}
	if err != nil {
		return err
	}

	loc, err := LoadLocation(profile.Timezone)
	if err != nil {
		d.log.Warn("invalid profile timezone, using UTC",
			slog.String("user_uid", uid), slog.String("timezone", profile.Timezone))
	}

	subs, err := d.source.ListSubscriptions(ctx, uid)
	if err != nil {
		return err
	}

	ev := Evaluate(now, loc, subs, d.opts.Window, d.opts.HorizonDays)
	for _, id := range ev.Invalid {
		d.log.Warn("skipping subscription with invalid billing date",
			slog.String("user_uid", uid), slog.String("subscription_id", id))
	}

	raised, noticed := d.apply(uid, now, ev)
	if len(raised) == 0 && noticed == 0 {
		return nil
	}

	d.metrics.AlarmsRaised.Add(float64(len(raised)))
	if noticed > 0 {
		d.metrics.NoticesRaised.Inc()
	}
	for _, c := range raised {
		d.publish(ctx, eventFor(uid, c.Subscription, c.DaysUntilDue, now, false))
	}
	d.log.Info("alarm window triggered",
		slog.String("user_uid", uid),
		slog.String("window", ev.WindowKey),
		slog.Int("alarms", len(raised)),
		slog.Int("notices", noticed))
	d.changed(uid)
	return nil
}

// apply переносит результат оценки в состояние идентичности.
func (d *Detector) apply(uid string, now time.Time, ev Evaluation) ([]Candidate, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.state(uid)
	if !ev.InWindow {
		clear(st.fired)
		return nil, 0
	}
	for id, key := range st.fired {
		if key != ev.WindowKey {
			delete(st.fired, id)
		}
	}

	var raised []Candidate
	for _, c := range ev.Alarms {
		if st.fired[c.Subscription.ID] == ev.WindowKey {
			continue
		}
		st.fired[c.Subscription.ID] = ev.WindowKey
		if st.active.Add(c.Subscription) {
			raised = append(raised, c)
		}
	}

	var medium int
	for _, c := range ev.Notices {
		if st.fired[c.Subscription.ID] == ev.WindowKey {
			continue
		}
		st.fired[c.Subscription.ID] = ev.WindowKey
		medium++
	}
	if medium > 0 {
		st.notice = &Notice{Message: NoticeMessage(medium), ExpiresAt: now.Add(d.opts.NoticeTTL)}
	}
	return raised, medium
}

// ActiveAlarms возвращает активные будильники идентичности в порядке появления.
func (d *Detector) ActiveAlarms(uid string) []models.Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.states[uid]; ok {
		return st.active.List()
	}
	return []models.Subscription{}
}

// DismissAll снимает все будильники идентичности.
func (d *Detector) DismissAll(uid string) int {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	d.mu.Lock()
	st, ok := d.states[uid]
	n := 0
	if ok {
		n = st.active.Len()
		st.active.Clear()
	}
	d.mu.Unlock()
	if n > 0 {
		d.changed(uid)
	}
	return n
}

// Resolve снимает будильник одной подписки, например после продления или удаления.
// Ждёт окончания текущего прохода, чтобы проход не вернул в набор уже оплаченную подписку.
func (d *Detector) Resolve(uid, subscriptionID string) bool {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	d.mu.Lock()
	removed := false
	if st, ok := d.states[uid]; ok {
		removed = st.active.Remove(subscriptionID)
	}
	d.mu.Unlock()
	if removed {
		d.changed(uid)
	}
	return removed
}

// Notification возвращает текущее уведомление или nil, если его нет или оно истекло.
func (d *Detector) Notification(uid string) *Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.states[uid]
	if !ok || st.notice == nil {
		return nil
	}
	if !d.opts.Now().Before(st.notice.ExpiresAt) {
		st.notice = nil
		return nil
	}
	n := *st.notice
	return &n
}

// TestAlarm заменяет активные будильники синтетической подпиской высокого приоритета
// и публикует событие с признаком Test.
func (d *Detector) TestAlarm(ctx context.Context, uid string, profile models.UserProfile) models.Subscription {
	now := d.opts.Now()
	loc, _ := LoadLocation(profile.Timezone)
	sub := models.Subscription{
		ID:              TestAlarmID,
		UserUID:         uid,
		Name:            "TEST PROTOCOL",
		Cost:            decimal.NewFromInt(9999),
		Currency:        profile.Currency,
		Cycle:           models.CycleMonthly,
		NextBillingDate: recurrence.FormatDate(now.In(loc)),
		Category:        "System",
		Priority:        models.PriorityHigh,
	}

	d.tickMu.Lock()
	d.mu.Lock()
	d.state(uid).active.Replace(sub)
	d.mu.Unlock()
	d.tickMu.Unlock()

	d.publish(ctx, eventFor(uid, sub, 0, now, true))
	d.changed(uid)
	return sub
}

func (d *Detector) state(uid string) *identityState {
	st, ok := d.states[uid]
	if !ok {
		st = &identityState{active: NewActiveSet(), fired: make(map[string]string)}
		d.states[uid] = st
	}
	return st
}

func (d *Detector) publish(ctx context.Context, ev Event) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, ev); err != nil {
		d.metrics.AlarmPublishFails.Inc()
		d.log.Error("failed to publish alarm event",
			slog.String("user_uid", ev.UserUID),
			slog.String("subscription_id", ev.SubscriptionID),
			sl.Err(err))
	}
}

func (d *Detector) changed(uid string) {
	if d.onChange != nil {
		d.onChange(uid)
	}
}

func eventFor(uid string, sub models.Subscription, days int, now time.Time, test bool) Event {
	return Event{
		UserUID:         uid,
		SubscriptionID:  sub.ID,
		Name:            sub.Name,
		Cost:            sub.Cost,
		Currency:        sub.Currency,
		NextBillingDate: sub.NextBillingDate,
		DaysUntilDue:    days,
		RaisedAt:        now,
		Test:            test,
	}
}
