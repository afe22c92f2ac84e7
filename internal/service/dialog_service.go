package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"docforge-go/internal/model"
	"docforge-go/internal/repository"
	"docforge-go/pkg/clock"
	"docforge-go/pkg/gate"
	"docforge-go/pkg/kafka"
	"docforge-go/pkg/log"
	"docforge-go/pkg/tasks"

	"gorm.io/gorm"
)

// Sender 是对话出站通道的抽象，由网关侧的 WebSocket 连接实现。
// 发送失败只记日志，不中断业务流程。
type Sender interface {
	SendText(userID uint64, text string) error
	SendOptions(userID uint64, text string, options []model.Option) error
	SendDocument(userID uint64, fileURL, caption string) error
}

// languageOptions 是语言选择按钮，对所有语言一致。
var languageOptions = []model.Option{
	{ID: "lang_uz", Label: "🇺🇿 O'zbekcha"},
	{ID: "lang_ru", Label: "🇷🇺 Русский"},
	{ID: "lang_en", Label: "🇬🇧 English"},
}

// DialogService 驱动文档生成的对话状态机。
// 同一用户的事件串行处理，跨用户并发互不影响。
type DialogService struct {
	sessionRepo   repository.SessionRepository
	userRepo      repository.UserRepository
	quotaSvc      QuotaService
	referralSvc   *ReferralService
	generationSvc GenerationService
	gateChecker   gate.Checker
	producer      kafka.Producer
	sender        Sender
	clk           clock.Clock

	baselineLimit int
	userLocks     sync.Map // userID -> *sync.Mutex
}

// NewDialogService 创建一个新的 DialogService 实例。
func NewDialogService(
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	quotaSvc QuotaService,
	referralSvc *ReferralService,
	generationSvc GenerationService,
	gateChecker gate.Checker,
	producer kafka.Producer,
	sender Sender,
	clk clock.Clock,
	baselineLimit int,
) *DialogService {
	return &DialogService{
		sessionRepo:   sessionRepo,
		userRepo:      userRepo,
		quotaSvc:      quotaSvc,
		referralSvc:   referralSvc,
		generationSvc: generationSvc,
		gateChecker:   gateChecker,
		producer:      producer,
		sender:        sender,
		clk:           clk,
		baselineLimit: baselineLimit,
	}
}

// lockUser 按用户加锁，返回解锁函数。
func (s *DialogService) lockUser(userID uint64) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Start 处理 start 事件：确保用户存在，归因推荐（仅对新用户），
// 然后进入语言选择。refPayload 是深链中携带的推荐人 ID，可为空。
func (s *DialogService) Start(ctx context.Context, userID uint64, username, firstName, refPayload string) error {
	defer s.lockUser(userID)()

	_, findErr := s.userRepo.FindByID(userID)
	isNewUser := errors.Is(findErr, gorm.ErrRecordNotFound)
	if findErr != nil && !isNewUser {
		return findErr
	}

	user, err := s.userRepo.Upsert(userID, username, firstName, s.baselineLimit, s.clk.Today())
	if err != nil {
		return err
	}

	// 推荐归因只在用户首次出现时发生，老用户点推荐链接不产生奖励。
	if isNewUser && refPayload != "" {
		if referrerID, err := strconv.ParseUint(refPayload, 10, 64); err == nil {
			applied, err := s.referralSvc.RecordReferral(referrerID, userID)
			if err != nil {
				log.Errorf("记录推荐关系失败: referrer=%d referred=%d, error: %v", referrerID, userID, err)
			} else if applied {
				// 通知是尽力而为的，推荐人可能不在线。
				if err := s.sender.SendText(referrerID, s.textFor(referrerID, "referral_success")); err != nil {
					log.Warnf("推荐人 %d 通知发送失败: %v", referrerID, err)
				}
			}
		}
	}

	session := &model.DialogSession{State: model.StateLangSelect}
	if err := s.sessionRepo.Save(ctx, userID, session); err != nil {
		return err
	}
	return s.sender.SendOptions(userID, T(user.Language, "welcome"), languageOptions)
}

// HandleCallback 处理用户点选按钮产生的回调事件。
func (s *DialogService) HandleCallback(ctx context.Context, userID uint64, data string) error {
	defer s.lockUser(userID)()

	session, err := s.sessionRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if session == nil {
		session = &model.DialogSession{State: model.StateLangSelect}
	}

	lang := s.langOf(userID)

	switch {
	case strings.HasPrefix(data, "lang_"):
		code := strings.TrimPrefix(data, "lang_")
		if code != "uz" && code != "ru" && code != "en" {
			return nil
		}
		if err := s.userRepo.UpdateLanguage(userID, code); err != nil {
			return err
		}
		return s.afterLanguage(ctx, userID, code, session, false)

	case data == "check_sub":
		return s.afterLanguage(ctx, userID, lang, session, true)

	case strings.HasPrefix(data, "type_"):
		if session.State != model.StateSelectType {
			return nil
		}
		docType := strings.TrimPrefix(data, "type_")
		if !model.ValidDocType(docType) {
			return nil
		}
		remaining, total, err := s.quotaSvc.Remaining(userID)
		if err != nil {
			return err
		}
		if remaining <= 0 {
			link := s.referralSvc.ReferralLink(userID)
			return s.sender.SendText(userID, fmt.Sprintf(T(lang, "limit_reached"), remaining, total, link))
		}
		session.DocType = docType
		session.State = model.StateEnterTopic
		if err := s.sessionRepo.Save(ctx, userID, session); err != nil {
			return err
		}
		return s.sender.SendText(userID, T(lang, "enter_topic"))

	case strings.HasPrefix(data, "design_"):
		if session.State != model.StateSelectDesign {
			return nil
		}
		designID := strings.TrimPrefix(data, "design_")
		if !model.ValidDesign(designID) {
			return nil
		}
		session.Design = designID
		session.State = model.StateConfirm
		if err := s.sessionRepo.Save(ctx, userID, session); err != nil {
			return err
		}
		return s.sendConfirmation(userID, lang, session)

	case data == "confirm_yes":
		// 状态检查挡掉重复确认：第一次确认已把状态迁到 generating。
		if session.State != model.StateConfirm {
			return nil
		}
		return s.confirm(ctx, userID, lang, session)

	case data == "referral":
		info, err := s.ReferralInfo(userID)
		if err != nil {
			return err
		}
		return s.sender.SendText(userID, info)

	case data == "confirm_no":
		if err := s.sessionRepo.Delete(ctx, userID); err != nil {
			return err
		}
		restart := &model.DialogSession{State: model.StateLangSelect}
		if err := s.sessionRepo.Save(ctx, userID, restart); err != nil {
			return err
		}
		return s.sender.SendOptions(userID, T(lang, "restart"), languageOptions)
	}

	return nil
}

// HandleText 处理用户输入的自由文本（主题与页数）。
func (s *DialogService) HandleText(ctx context.Context, userID uint64, text string) error {
	defer s.lockUser(userID)()

	session, err := s.sessionRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	lang := s.langOf(userID)

	switch session.State {
	case model.StateEnterTopic:
		topic := strings.TrimSpace(text)
		if topic == "" {
			return s.sender.SendText(userID, T(lang, "enter_topic"))
		}
		session.Topic = topic
		session.State = model.StateEnterPages
		if err := s.sessionRepo.Save(ctx, userID, session); err != nil {
			return err
		}
		return s.sender.SendText(userID, T(lang, "enter_pages"))

	case model.StateEnterPages:
		pages, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || pages < model.MinPages || pages > model.MaxPages {
			return s.sender.SendText(userID, T(lang, "invalid_pages"))
		}
		session.Pages = pages

		// 只有演示文稿才有设计模板，其余类型直接进入确认。
		if session.DocType != model.DocTypePresentation {
			session.State = model.StateConfirm
			if err := s.sessionRepo.Save(ctx, userID, session); err != nil {
				return err
			}
			return s.sendConfirmation(userID, lang, session)
		}

		session.State = model.StateSelectDesign
		if err := s.sessionRepo.Save(ctx, userID, session); err != nil {
			return err
		}
		options := make([]model.Option, 0, len(model.Designs))
		for _, d := range model.Designs {
			options = append(options, model.Option{ID: "design_" + d.ID, Label: d.Name})
		}
		return s.sender.SendOptions(userID, T(lang, "select_design"), options)
	}

	return nil
}

// afterLanguage 执行订阅门槛检查，通过后进入类型选择。
// recheck 为 true 表示用户点了"重新检查"，未通过时用更明确的提示。
func (s *DialogService) afterLanguage(ctx context.Context, userID uint64, lang string, session *model.DialogSession, recheck bool) error {
	subscribed, err := s.gateChecker.IsSubscribed(ctx, userID)
	if err != nil {
		log.Warnf("用户 %d 订阅校验失败: %v", userID, err)
	}
	if !subscribed {
		session.State = model.StateCheckSubscription
		if err := s.sessionRepo.Save(ctx, userID, session); err != nil {
			return err
		}
		text := T(lang, "subscription_required")
		if recheck {
			text = T(lang, "not_subscribed")
		}
		return s.sender.SendOptions(userID, text, []model.Option{
			{ID: "check_sub", Label: T(lang, "check_subscription")},
		})
	}

	session.State = model.StateSelectType
	if err := s.sessionRepo.Save(ctx, userID, session); err != nil {
		return err
	}
	return s.sender.SendOptions(userID, T(lang, "select_type"), []model.Option{
		{ID: "type_presentation", Label: T(lang, "type_presentation")},
		{ID: "type_report", Label: T(lang, "type_report")},
		{ID: "type_coursework", Label: T(lang, "type_coursework")},
	})
}

// sendConfirmation 发送确认摘要。演示文稿类型附带已选的设计。
func (s *DialogService) sendConfirmation(userID uint64, lang string, session *model.DialogSession) error {
	summary := fmt.Sprintf(T(lang, "confirm_data"),
		T(lang, "type_"+session.DocType), session.Topic, session.Pages)
	if session.DocType == model.DocTypePresentation && session.Design != "" {
		summary += fmt.Sprintf(T(lang, "confirm_design"), model.DesignName(session.Design))
	}
	summary += T(lang, "confirm_prompt")
	return s.sender.SendOptions(userID, summary, []model.Option{
		{ID: "confirm_yes", Label: T(lang, "confirm_yes")},
		{ID: "confirm_no", Label: T(lang, "confirm_no")},
	})
}

// confirm 创建 pending 记录并把生成任务投递到队列。
func (s *DialogService) confirm(ctx context.Context, userID uint64, lang string, session *model.DialogSession) error {
	generation, err := s.generationSvc.Create(userID, session.DocType, session.Topic, session.Pages, session.Design)
	if err != nil {
		return err
	}

	task := tasks.GenerationTask{
		GenerationID: generation.ID,
		UserID:       userID,
		DocType:      session.DocType,
		Topic:        session.Topic,
		Pages:        session.Pages,
		Design:       session.Design,
		Language:     lang,
	}
	if err := s.producer.ProduceGenerationTask(task); err != nil {
		// 入队失败时记录立即置为 failed，额度不消耗。
		if markErr := s.generationSvc.MarkFailed(generation.ID, "enqueue failed"); markErr != nil {
			log.Errorf("标记生成记录失败态出错: id=%d, error: %v", generation.ID, markErr)
		}
		if sendErr := s.sender.SendText(userID, T(lang, "error")); sendErr != nil {
			log.Warnf("用户 %d 错误提示发送失败: %v", userID, sendErr)
		}
		return err
	}

	session.GenerationID = generation.ID
	session.State = model.StateGenerating
	if err := s.sessionRepo.Save(ctx, userID, session); err != nil {
		return err
	}
	return s.sender.SendText(userID, T(lang, "generating"))
}

// NotifySuccess 在流水线生成成功后把文件与剩余额度推给用户。
func (s *DialogService) NotifySuccess(userID uint64, generationID uint, fileURL string) error {
	defer s.lockUser(userID)()

	lang := s.langOf(userID)
	remaining, total, err := s.quotaSvc.Remaining(userID)
	if err != nil {
		log.Errorf("查询用户 %d 剩余额度失败: %v", userID, err)
	}

	if err := s.sender.SendDocument(userID, fileURL, fmt.Sprintf(T(lang, "success"), remaining, total)); err != nil {
		log.Warnf("用户 %d 文档推送失败: generationID=%d, error: %v", userID, generationID, err)
	}
	return s.sessionRepo.Delete(context.Background(), userID)
}

// NotifyFailure 在流水线生成失败后提示用户，会话退回确认态以便重试。
func (s *DialogService) NotifyFailure(userID uint64, generationID uint) error {
	defer s.lockUser(userID)()

	ctx := context.Background()
	lang := s.langOf(userID)
	if err := s.sender.SendText(userID, T(lang, "error")); err != nil {
		log.Warnf("用户 %d 失败提示发送失败: generationID=%d, error: %v", userID, generationID, err)
	}

	session, err := s.sessionRepo.Get(ctx, userID)
	if err != nil || session == nil {
		return err
	}
	if session.State == model.StateGenerating && session.GenerationID == generationID {
		session.State = model.StateConfirm
		session.GenerationID = 0
		return s.sessionRepo.Save(ctx, userID, session)
	}
	return nil
}

// ReferralInfo 返回用户的推荐统计文案。
func (s *DialogService) ReferralInfo(userID uint64) (string, error) {
	count, err := s.referralSvc.ReferralCount(userID)
	if err != nil {
		return "", err
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return "", err
	}
	link := s.referralSvc.ReferralLink(userID)
	return fmt.Sprintf(T(user.Language, "referral_info"), count, user.DailyLimit, link), nil
}

// langOf 读取用户语言，查询失败时回退到默认语言。
func (s *DialogService) langOf(userID uint64) string {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return "uz"
	}
	return user.Language
}

// textFor 返回用户语言下的指定文案。
func (s *DialogService) textFor(userID uint64, key string) string {
	return T(s.langOf(userID), key)
}
