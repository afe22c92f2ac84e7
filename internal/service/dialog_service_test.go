package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"docforge-go/internal/model"
	"docforge-go/internal/repository"
	"docforge-go/pkg/tasks"

	"gorm.io/gorm"
)

// memSessionRepo 是 SessionRepository 的内存实现。
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[uint64]model.DialogSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[uint64]model.DialogSession)}
}

func (r *memSessionRepo) Get(_ context.Context, userID uint64) (*model.DialogSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		return nil, nil
	}
	copied := s
	return &copied, nil
}

func (r *memSessionRepo) Save(_ context.Context, userID uint64, session *model.DialogSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = *session
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

// sentMessage 记录一条出站消息。
type sentMessage struct {
	userID  uint64
	text    string
	options []model.Option
	fileURL string
}

// recordingSender 收集所有出站消息供断言。
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (s *recordingSender) SendText(userID uint64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{userID: userID, text: text})
	return nil
}

func (s *recordingSender) SendOptions(userID uint64, text string, options []model.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{userID: userID, text: text, options: options})
	return nil
}

func (s *recordingSender) SendDocument(userID uint64, fileURL, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{userID: userID, text: caption, fileURL: fileURL})
	return nil
}

func (s *recordingSender) last() sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentMessage{}
	}
	return s.sent[len(s.sent)-1]
}

func (s *recordingSender) lastFor(userID uint64) sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sent) - 1; i >= 0; i-- {
		if s.sent[i].userID == userID {
			return s.sent[i]
		}
	}
	return sentMessage{}
}

// stubGate 返回固定的订阅状态。
type stubGate struct {
	subscribed bool
}

func (g *stubGate) IsSubscribed(_ context.Context, _ uint64) (bool, error) {
	return g.subscribed, nil
}

// recordingProducer 收集投递的生成任务。
type recordingProducer struct {
	mu    sync.Mutex
	tasks []tasks.GenerationTask
}

func (p *recordingProducer) ProduceGenerationTask(task tasks.GenerationTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
	return nil
}

func (p *recordingProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

type dialogFixture struct {
	svc      *DialogService
	db       *gorm.DB
	sessions *memSessionRepo
	sender   *recordingSender
	gate     *stubGate
	producer *recordingProducer
	userRepo repository.UserRepository
	clk      *fakeClock
}

func newDialogFixture(t *testing.T) *dialogFixture {
	t.Helper()
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	clk := newFakeClock("2026-08-29T10:00:00Z")
	sessions := newMemSessionRepo()
	sender := &recordingSender{}
	gateStub := &stubGate{subscribed: true}
	producer := &recordingProducer{}

	svc := NewDialogService(
		sessions,
		userRepo,
		NewQuotaService(userRepo, clk),
		NewReferralService(db, "https://t.me/docforge_bot", 1),
		NewGenerationService(repository.NewGenerationRepository(db), clk),
		gateStub,
		producer,
		sender,
		clk,
		2,
	)
	return &dialogFixture{
		svc:      svc,
		db:       db,
		sessions: sessions,
		sender:   sender,
		gate:     gateStub,
		producer: producer,
		userRepo: userRepo,
		clk:      clk,
	}
}

// walkToConfirm 把用户带到确认态。
func walkToConfirm(t *testing.T, f *dialogFixture, userID uint64) {
	t.Helper()
	ctx := context.Background()
	if err := f.svc.Start(ctx, userID, "user"+strconv.FormatUint(userID, 10), "User", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.svc.HandleCallback(ctx, userID, "lang_uz"); err != nil {
		t.Fatalf("lang: %v", err)
	}
	if err := f.svc.HandleCallback(ctx, userID, "type_presentation"); err != nil {
		t.Fatalf("type: %v", err)
	}
	if err := f.svc.HandleText(ctx, userID, "Quyosh tizimi"); err != nil {
		t.Fatalf("topic: %v", err)
	}
	if err := f.svc.HandleText(ctx, userID, "10"); err != nil {
		t.Fatalf("pages: %v", err)
	}
	if err := f.svc.HandleCallback(ctx, userID, "design_3"); err != nil {
		t.Fatalf("design: %v", err)
	}
}

func TestDialogHappyPathProducesTask(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	walkToConfirm(t, f, 100)

	session, _ := f.sessions.Get(ctx, 100)
	if session.State != model.StateConfirm {
		t.Fatalf("state = %q, want confirm", session.State)
	}

	if err := f.svc.HandleCallback(ctx, 100, "confirm_yes"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if f.producer.count() != 1 {
		t.Fatalf("produced %d tasks, want 1", f.producer.count())
	}
	task := f.producer.tasks[0]
	if task.DocType != model.DocTypePresentation || task.Topic != "Quyosh tizimi" || task.Pages != 10 || task.Design != "3" {
		t.Errorf("task = %+v", task)
	}
	if task.Language != "uz" {
		t.Errorf("task language = %q, want uz", task.Language)
	}

	session, _ = f.sessions.Get(ctx, 100)
	if session.State != model.StateGenerating {
		t.Errorf("state = %q, want generating", session.State)
	}

	var gen model.Generation
	if err := f.db.First(&gen, "id = ?", task.GenerationID).Error; err != nil {
		t.Fatalf("generation row: %v", err)
	}
	if gen.Status != model.GenerationPending {
		t.Errorf("generation status = %q, want pending", gen.Status)
	}
}

func TestDialogDoubleConfirmIsNoOp(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	walkToConfirm(t, f, 100)
	if err := f.svc.HandleCallback(ctx, 100, "confirm_yes"); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if err := f.svc.HandleCallback(ctx, 100, "confirm_yes"); err != nil {
		t.Fatalf("second confirm: %v", err)
	}

	if f.producer.count() != 1 {
		t.Errorf("produced %d tasks, want 1 (duplicate confirm must be dropped)", f.producer.count())
	}
	var count int64
	f.db.Model(&model.Generation{}).Count(&count)
	if count != 1 {
		t.Errorf("generation rows = %d, want 1", count)
	}
}

func TestDialogInvalidPagesReprompts(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	f.svc.Start(ctx, 100, "alice", "Alice", "")
	f.svc.HandleCallback(ctx, 100, "lang_uz")
	f.svc.HandleCallback(ctx, 100, "type_report")
	f.svc.HandleText(ctx, 100, "Iqlim")

	for _, input := range []string{"2", "51", "abc", ""} {
		if err := f.svc.HandleText(ctx, 100, input); err != nil {
			t.Fatalf("pages %q: %v", input, err)
		}
		session, _ := f.sessions.Get(ctx, 100)
		if session.State != model.StateEnterPages {
			t.Errorf("input %q moved state to %q, want enter_pages", input, session.State)
		}
	}

	// 边界值有效；report 类型没有设计选择，直接进入确认
	if err := f.svc.HandleText(ctx, 100, "3"); err != nil {
		t.Fatalf("pages 3: %v", err)
	}
	session, _ := f.sessions.Get(ctx, 100)
	if session.State != model.StateConfirm {
		t.Errorf("state = %q, want confirm", session.State)
	}
	if session.Pages != 3 {
		t.Errorf("pages = %d, want 3", session.Pages)
	}
}

func TestDialogNonPresentationSkipsDesignSelect(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	for userID, docType := range map[uint64]string{100: "type_report", 200: "type_coursework"} {
		f.svc.Start(ctx, userID, "user", "User", "")
		f.svc.HandleCallback(ctx, userID, "lang_uz")
		f.svc.HandleCallback(ctx, userID, docType)
		f.svc.HandleText(ctx, userID, "Iqlim o'zgarishi")
		if err := f.svc.HandleText(ctx, userID, "10"); err != nil {
			t.Fatalf("%s pages: %v", docType, err)
		}

		session, _ := f.sessions.Get(ctx, userID)
		if session.State != model.StateConfirm {
			t.Errorf("%s: state = %q, want confirm", docType, session.State)
		}
		if session.Design != "" {
			t.Errorf("%s: design = %q, want empty", docType, session.Design)
		}

		// 可直接确认，任务不带设计
		if err := f.svc.HandleCallback(ctx, userID, "confirm_yes"); err != nil {
			t.Fatalf("%s confirm: %v", docType, err)
		}
	}

	if f.producer.count() != 2 {
		t.Fatalf("produced %d tasks, want 2", f.producer.count())
	}
	for _, task := range f.producer.tasks {
		if task.Design != "" {
			t.Errorf("task design = %q, want empty", task.Design)
		}
	}
}

func TestDialogPresentationKeepsDesignSelect(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	f.svc.Start(ctx, 100, "alice", "Alice", "")
	f.svc.HandleCallback(ctx, 100, "lang_uz")
	f.svc.HandleCallback(ctx, 100, "type_presentation")
	f.svc.HandleText(ctx, 100, "Quyosh tizimi")
	if err := f.svc.HandleText(ctx, 100, "10"); err != nil {
		t.Fatalf("pages: %v", err)
	}

	session, _ := f.sessions.Get(ctx, 100)
	if session.State != model.StateSelectDesign {
		t.Fatalf("state = %q, want select_design", session.State)
	}
	if len(f.sender.last().options) != len(model.Designs) {
		t.Errorf("design options = %d, want %d", len(f.sender.last().options), len(model.Designs))
	}

	// 确认摘要包含所选设计的名称
	if err := f.svc.HandleCallback(ctx, 100, "design_3"); err != nil {
		t.Fatalf("design: %v", err)
	}
	summary := f.sender.last().text
	if !strings.Contains(summary, model.DesignName("3")) {
		t.Errorf("confirmation summary missing design: %q", summary)
	}
}

func TestDialogQuotaBlocksAtTypeSelect(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	f.svc.Start(ctx, 100, "alice", "Alice", "")
	f.svc.HandleCallback(ctx, 100, "lang_uz")

	// 额度耗尽
	f.userRepo.IncrementUsage(100)
	f.userRepo.IncrementUsage(100)

	if err := f.svc.HandleCallback(ctx, 100, "type_report"); err != nil {
		t.Fatalf("type: %v", err)
	}

	session, _ := f.sessions.Get(ctx, 100)
	if session.State != model.StateSelectType {
		t.Errorf("state = %q, want select_type (blocked)", session.State)
	}
	var count int64
	f.db.Model(&model.Generation{}).Count(&count)
	if count != 0 {
		t.Errorf("generation rows = %d, want 0", count)
	}
	// 提示中带当前额度与推荐链接
	last := f.sender.last()
	if !strings.Contains(last.text, "0/2") {
		t.Errorf("limit message missing remaining/total: %q", last.text)
	}
	if !strings.Contains(last.text, "?start=100") {
		t.Errorf("limit message missing referral link: %q", last.text)
	}
}

func TestDialogSubscriptionGate(t *testing.T) {
	f := newDialogFixture(t)
	f.gate.subscribed = false
	ctx := context.Background()

	f.svc.Start(ctx, 100, "alice", "Alice", "")
	if err := f.svc.HandleCallback(ctx, 100, "lang_uz"); err != nil {
		t.Fatalf("lang: %v", err)
	}

	session, _ := f.sessions.Get(ctx, 100)
	if session.State != model.StateCheckSubscription {
		t.Fatalf("state = %q, want check_subscription", session.State)
	}

	// 未订阅时重新检查仍被拦截
	f.svc.HandleCallback(ctx, 100, "check_sub")
	session, _ = f.sessions.Get(ctx, 100)
	if session.State != model.StateCheckSubscription {
		t.Errorf("state = %q, want check_subscription", session.State)
	}

	// 订阅后重新检查放行
	f.gate.subscribed = true
	f.svc.HandleCallback(ctx, 100, "check_sub")
	session, _ = f.sessions.Get(ctx, 100)
	if session.State != model.StateSelectType {
		t.Errorf("state = %q, want select_type", session.State)
	}
}

func TestDialogReferralAttributionOnFirstStart(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	// 推荐人先存在
	f.svc.Start(ctx, 100, "alice", "Alice", "")

	// 新用户通过深链进入
	f.svc.Start(ctx, 200, "bob", "Bob", "100")

	referrer, _ := f.userRepo.FindByID(100)
	if referrer.DailyLimit != 3 {
		t.Errorf("referrer daily limit = %d, want 3", referrer.DailyLimit)
	}

	// 老用户再点别人的推荐链接不产生奖励
	f.svc.Start(ctx, 300, "carol", "Carol", "")
	f.svc.Start(ctx, 200, "bob", "Bob", "300")

	carol, _ := f.userRepo.FindByID(300)
	if carol.DailyLimit != 2 {
		t.Errorf("late referral granted bonus: limit = %d, want 2", carol.DailyLimit)
	}

	// 推荐人收到了通知
	notified := f.sender.lastFor(100)
	if notified.userID != 100 || notified.text == "" {
		t.Errorf("referrer not notified: %+v", notified)
	}
}

func TestDialogReferralInfoCallback(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	f.svc.Start(ctx, 100, "alice", "Alice", "")
	f.svc.Start(ctx, 200, "bob", "Bob", "100")

	if err := f.svc.HandleCallback(ctx, 100, "referral"); err != nil {
		t.Fatalf("referral callback: %v", err)
	}

	last := f.sender.lastFor(100)
	if !strings.Contains(last.text, "?start=100") {
		t.Errorf("referral info missing link: %q", last.text)
	}
	// 一个推荐、上限 3
	if !strings.Contains(last.text, "1") || !strings.Contains(last.text, "3") {
		t.Errorf("referral info missing stats: %q", last.text)
	}
}

func TestDialogConfirmNoRestarts(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	walkToConfirm(t, f, 100)
	if err := f.svc.HandleCallback(ctx, 100, "confirm_no"); err != nil {
		t.Fatalf("confirm_no: %v", err)
	}

	session, _ := f.sessions.Get(ctx, 100)
	if session.State != model.StateLangSelect {
		t.Errorf("state = %q, want lang_select", session.State)
	}
	if session.Topic != "" || session.DocType != "" {
		t.Errorf("draft not cleared: %+v", session)
	}
	if f.producer.count() != 0 {
		t.Errorf("produced %d tasks, want 0", f.producer.count())
	}
}

func TestDialogNotifySuccessClearsSession(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	walkToConfirm(t, f, 100)
	f.svc.HandleCallback(ctx, 100, "confirm_yes")
	genID := f.producer.tasks[0].GenerationID

	if err := f.svc.NotifySuccess(100, genID, "https://minio.local/doc.pptx"); err != nil {
		t.Fatalf("notify success: %v", err)
	}

	session, _ := f.sessions.Get(ctx, 100)
	if session != nil {
		t.Errorf("session not cleared: %+v", session)
	}
	last := f.sender.last()
	if last.fileURL != "https://minio.local/doc.pptx" {
		t.Errorf("document not delivered: %+v", last)
	}
	if !strings.Contains(last.text, "2/2") {
		t.Errorf("caption missing remaining/total: %q", last.text)
	}
}

func TestDialogNotifyFailureReturnsToConfirm(t *testing.T) {
	f := newDialogFixture(t)
	ctx := context.Background()

	walkToConfirm(t, f, 100)
	f.svc.HandleCallback(ctx, 100, "confirm_yes")
	genID := f.producer.tasks[0].GenerationID

	if err := f.svc.NotifyFailure(100, genID); err != nil {
		t.Fatalf("notify failure: %v", err)
	}

	session, _ := f.sessions.Get(ctx, 100)
	if session == nil || session.State != model.StateConfirm {
		t.Errorf("session state after failure = %+v, want confirm", session)
	}

	// 失败后可以直接再次确认
	if err := f.svc.HandleCallback(ctx, 100, "confirm_yes"); err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
	if f.producer.count() != 2 {
		t.Errorf("produced %d tasks, want 2", f.producer.count())
	}
}
