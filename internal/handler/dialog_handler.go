package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"docforge-go/internal/model"
	"docforge-go/internal/service"
	"docforge-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 网关凭证已在中间件校验，来源不再限制
	},
}

// inboundEvent 是网关推过来的一条用户事件。
type inboundEvent struct {
	Type       string `json:"type"` // start | text | callback
	Text       string `json:"text,omitempty"`
	Data       string `json:"data,omitempty"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	RefPayload string `json:"refPayload,omitempty"`
}

// outboundMessage 是推回网关的一条出站消息。
type outboundMessage struct {
	Type    string          `json:"type"` // text | options | document
	UserID  uint64          `json:"userId"`
	Text    string          `json:"text,omitempty"`
	Options []optionPayload `json:"options,omitempty"`
	FileURL string          `json:"fileUrl,omitempty"`
	Caption string          `json:"caption,omitempty"`
}

type optionPayload struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// wsConn 包装一条连接，写操作需要串行化。
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// DialogHandler 负责处理网关侧的 WebSocket 对话连接，
// 同时作为对话层的出站通道（实现 service.Sender）。
type DialogHandler struct {
	dialogService *service.DialogService
	conns         sync.Map // userID -> *wsConn
}

// NewDialogHandler 创建一个新的 DialogHandler 实例。
// 对话服务在 main 中创建后通过 SetDialogService 注入，
// 因为服务本身需要 Sender，二者互相依赖。
func NewDialogHandler() *DialogHandler {
	return &DialogHandler{}
}

// SetDialogService 注入对话服务。
func (h *DialogHandler) SetDialogService(svc *service.DialogService) {
	h.dialogService = svc
}

// Handle 处理一个传入的 WebSocket 连接。一条连接对应一个用户，
// 网关按用户维度建连。
func (h *DialogHandler) Handle(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("userId"), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的用户 ID", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	wc := &wsConn{conn: conn}
	h.conns.Store(userID, wc)
	defer h.conns.Delete(userID)

	log.Infof("对话连接已建立: userID=%d", userID)

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("对话连接异常断开: userID=%d, error: %v", userID, err)
			}
			break
		}

		var event inboundEvent
		if err := json.Unmarshal(msgBytes, &event); err != nil {
			log.Warnf("无法解析对话事件: userID=%d, payload: %s", userID, string(msgBytes))
			continue
		}

		if err := h.dispatch(c, userID, event); err != nil {
			log.Errorf("处理对话事件失败: userID=%d, type=%s, error: %v", userID, event.Type, err)
			_ = wc.writeJSON(outboundMessage{Type: "text", UserID: userID, Text: "Internal error"})
		}
	}

	log.Infof("对话连接已关闭: userID=%d", userID)
}

// dispatch 把事件路由到对话状态机。
func (h *DialogHandler) dispatch(c *gin.Context, userID uint64, event inboundEvent) error {
	ctx := c.Request.Context()
	switch event.Type {
	case "start":
		return h.dialogService.Start(ctx, userID, event.Username, event.FirstName, event.RefPayload)
	case "text":
		return h.dialogService.HandleText(ctx, userID, event.Text)
	case "callback":
		return h.dialogService.HandleCallback(ctx, userID, event.Data)
	default:
		return errors.New("unknown event type: " + event.Type)
	}
}

// ErrNotConnected 表示目标用户当前没有活跃的对话连接。
var ErrNotConnected = errors.New("user not connected")

func (h *DialogHandler) connOf(userID uint64) (*wsConn, error) {
	v, ok := h.conns.Load(userID)
	if !ok {
		return nil, ErrNotConnected
	}
	return v.(*wsConn), nil
}

// SendText 实现 service.Sender。
func (h *DialogHandler) SendText(userID uint64, text string) error {
	wc, err := h.connOf(userID)
	if err != nil {
		return err
	}
	return wc.writeJSON(outboundMessage{Type: "text", UserID: userID, Text: text})
}

// SendOptions 实现 service.Sender。
func (h *DialogHandler) SendOptions(userID uint64, text string, options []model.Option) error {
	wc, err := h.connOf(userID)
	if err != nil {
		return err
	}
	payload := make([]optionPayload, 0, len(options))
	for _, o := range options {
		payload = append(payload, optionPayload{ID: o.ID, Label: o.Label})
	}
	return wc.writeJSON(outboundMessage{Type: "options", UserID: userID, Text: text, Options: payload})
}

// SendDocument 实现 service.Sender。
func (h *DialogHandler) SendDocument(userID uint64, fileURL, caption string) error {
	wc, err := h.connOf(userID)
	if err != nil {
		return err
	}
	return wc.writeJSON(outboundMessage{Type: "document", UserID: userID, FileURL: fileURL, Caption: caption})
}
