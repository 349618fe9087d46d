package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lasyfinance/internal/clock"
	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/llm"
	"lasyfinance/internal/logger"
	"lasyfinance/internal/models"
	"lasyfinance/internal/money"
	"lasyfinance/internal/whatsapp"
)

const (
	// ErrorReply is sent when a message cannot be processed.
	ErrorReply = "❌ Desculpe, houve um erro ao processar sua mensagem. Tente novamente."
	// UntranscribedAudio replaces the text of audio that could not be transcribed.
	UntranscribedAudio = "[Áudio não pôde ser transcrito]"

	// deliveryTimeout bounds the reply send, which runs even after the
	// request deadline has passed.
	deliveryTimeout = 10 * time.Second

	transcriptionLanguage = "Portuguese (pt-BR)"
	contextPayables       = 5
	isoDate               = "2006-01-02"
)

// ChatDeps wires the chat pipeline.
type ChatDeps struct {
	DB           *gorm.DB
	Users        UserServicer
	Categories   CategoryServicer
	Transactions TransactionServicer
	Bills        BillServicer
	Messages     MessageLogServicer
	Query        QueryResponder
	LLM          llm.Client
	Messenger    whatsapp.Client
	Clock        clock.Clock
}

type chatService struct {
	ChatDeps
	log *zap.SugaredLogger
}

// NewChatService creates a ChatServicer. Missing collaborators are replaced
// by their disabled variants.
func NewChatService(deps ChatDeps) ChatServicer {
	if deps.LLM == nil {
		deps.LLM = llm.Disabled{}
	}
	if deps.Messenger == nil {
		deps.Messenger = whatsapp.Disabled{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	return &chatService{ChatDeps: deps, log: logger.Named("chat")}
}

// classification is the JSON object the model returns for a message.
type classification struct {
	IsTransaction bool            `json:"isTransaction"`
	Amount        json.RawMessage `json:"amount,omitempty"`
	Type          string          `json:"type,omitempty"`
	Category      string          `json:"category,omitempty"`
	Description   string          `json:"description,omitempty"`
	Date          string          `json:"date,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	ClientName    string          `json:"client_name,omitempty"`
}

// amount accepts a JSON number or a string such as "R$ 50,00".
func (c *classification) amount() (decimal.Decimal, bool) {
	raw := strings.TrimSpace(string(c.Amount))
	if raw == "" || raw == "null" {
		return decimal.Zero, false
	}
	var s string
	if err := json.Unmarshal(c.Amount, &s); err != nil {
		// JSON numbers always use a decimal point.
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, false
		}
		return money.Round(d), true
	}
	d, err := money.Parse(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// transaction reports whether the classification can be recorded: a flagged
// transaction with a positive amount and a known direction.
func (c *classification) transaction() (models.TransactionType, decimal.Decimal, bool) {
	if c == nil || !c.IsTransaction {
		return "", decimal.Zero, false
	}
	amount, ok := c.amount()
	if !ok || !amount.IsPositive() {
		return "", decimal.Zero, false
	}
	txType := models.TransactionType(strings.ToLower(strings.TrimSpace(c.Type)))
	if !txType.Valid() {
		return "", decimal.Zero, false
	}
	return txType, amount, true
}

// HandleInbound runs one message through sender resolution, normalization,
// classification and persistence, then delivers and returns the reply. A
// redelivered message id returns the logged reply without reprocessing or
// sending it again.
func (s *chatService) HandleInbound(ctx context.Context, msg whatsapp.InboundMessage) string {
	log := s.log.With("from", msg.From, "message_id", msg.MessageID)

	if prior, ok := s.processed(log, msg.MessageID); ok {
		log.Infow("skipping redelivered message")
		return prior.Response
	}

	reply, err := s.process(ctx, log, msg)
	if errors.Is(err, apperrors.ErrDuplicateMessage) {
		log.Infow("message recorded by a concurrent delivery, skipping")
		if prior, ok := s.processed(log, msg.MessageID); ok {
			return prior.Response
		}
		return ErrorReply
	}
	if err != nil {
		log.Errorw("failed to process message", "error", err)
		reply = ErrorReply
	}

	s.deliver(ctx, log, msg.From, reply)
	return reply
}

// processed returns the log entry of a message id that was already handled.
func (s *chatService) processed(log *zap.SugaredLogger, messageID string) (*models.MessageLog, bool) {
	if messageID == "" {
		return nil, false
	}
	entry, err := s.Messages.GetByChannelMessageID(messageID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrMessageNotFound) {
			log.Warnw("failed to check for redelivery", "error", err)
		}
		return nil, false
	}
	return entry, true
}

func (s *chatService) process(ctx context.Context, log *zap.SugaredLogger, msg whatsapp.InboundMessage) (string, error) {
	user, created, err := s.Users.ResolveChatUser(msg.From, msg.ProfileName)
	if err != nil {
		return "", fmt.Errorf("resolve sender: %w", err)
	}
	if created {
		log.Infow("created chat user", "user_id", user.ID)
	}

	text, msgType := s.normalize(ctx, log, msg)

	categories, err := s.Categories.ListAllCategories(user.ID)
	if err != nil {
		log.Warnw("failed to load categories", "error", err)
	}
	payables, err := s.Bills.PendingPayables(user.ID, contextPayables)
	if err != nil {
		log.Warnw("failed to load pending payables", "error", err)
	}

	cls := s.classify(ctx, log, text, categories, payables)
	entry := &models.MessageLog{
		UserID:           user.ID,
		WhatsAppNumber:   msg.From,
		ChannelMessageID: msg.MessageID,
		MessageType:      msgType,
		OriginalMessage:  text,
	}
	if cls != nil {
		if parsed, err := json.Marshal(cls); err == nil {
			entry.ParsedData = string(parsed)
		}
	}

	if txType, amount, ok := cls.transaction(); ok {
		return s.record(user, cls, txType, amount, entry)
	}

	reply := s.answer(ctx, log, user, text, categories, payables)
	entry.Response = reply
	if err := s.Messages.RecordTx(s.DB, entry); err != nil {
		return "", fmt.Errorf("record message: %w", err)
	}
	return reply, nil
}

// normalize returns the message text, transcribing audio when present.
func (s *chatService) normalize(ctx context.Context, log *zap.SugaredLogger, msg whatsapp.InboundMessage) (string, models.MessageType) {
	if !msg.IsAudio() {
		return msg.Text, models.MessageTypeText
	}

	audio, mimeType, err := s.Messenger.DownloadMedia(ctx, msg.Audio.ID)
	if err != nil {
		log.Warnw("failed to download audio", "media_id", msg.Audio.ID, "error", err)
		return UntranscribedAudio, models.MessageTypeAudio
	}
	if mimeType == "" {
		mimeType = msg.Audio.MIMEType
	}

	text, err := s.LLM.Transcribe(ctx, audio, mimeType, transcriptionLanguage)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warnw("failed to transcribe audio", "media_id", msg.Audio.ID, "error", err)
		return UntranscribedAudio, models.MessageTypeAudio
	}
	return strings.TrimSpace(text), models.MessageTypeAudio
}

// classify asks the model whether text describes a transaction. It has no
// side effects; any failure yields nil, which means "not a transaction".
func (s *chatService) classify(ctx context.Context, log *zap.SugaredLogger, text string, categories []models.Category, payables []models.Bill) *classification {
	if !s.LLM.Available() || text == "" || text == UntranscribedAudio {
		return nil
	}

	var cls classification
	system := classificationPrompt(clock.Today(s.Clock), categories, payables)
	if err := s.LLM.ExtractJSON(ctx, system, text, &cls); err != nil {
		log.Warnw("failed to classify message", "error", err)
		return nil
	}
	return &cls
}

// record stores the transaction and its log entry in one database transaction.
func (s *chatService) record(user *models.User, cls *classification, txType models.TransactionType, amount decimal.Decimal, entry *models.MessageLog) (string, error) {
	in := TransactionInput{
		Type:          txType,
		Amount:        amount,
		Category:      strings.TrimSpace(cls.Category),
		Description:   strings.TrimSpace(cls.Description),
		Date:          s.parseDate(cls.Date),
		PaymentMethod: parsePaymentMethod(cls.PaymentMethod),
		Source:        models.TransactionSourceWhatsApp,
	}
	if txType == models.TransactionTypeIncome {
		in.Counterparty = strings.TrimSpace(cls.ClientName)
	} else {
		in.Counterparty = strings.TrimSpace(cls.SupplierName)
	}

	// Category lookup is best effort; a name without a matching row is kept as text.
	if in.Category != "" {
		if category, err := s.Categories.FindCategoryByName(user.ID, in.Category); err == nil && string(category.Type) == string(txType) {
			in.CategoryID = &category.ID
			in.Category = category.Name
		}
	}
	if in.Category == "" {
		in.Category = models.FallbackCategoryName
	}
	if in.Description == "" {
		in.Description = entry.OriginalMessage
	}

	reply := transactionReply(txType, amount, in.Category)
	entry.Response = reply

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		created, err := s.Transactions.CreateTransactionTx(tx, user.ID, in)
		if err != nil {
			return err
		}
		entry.TransactionID = &created.ID
		return s.Messages.RecordTx(tx, entry)
	})
	if err != nil {
		return "", fmt.Errorf("record transaction: %w", err)
	}
	return reply, nil
}

// answer replies to a message that is not a transaction. Keyword questions
// go to the query responder; anything else gets a conversational reply when
// the model is available and the help text otherwise.
func (s *chatService) answer(ctx context.Context, log *zap.SugaredLogger, user *models.User, text string, categories []models.Category, payables []models.Bill) string {
	if s.Query.Match(text) == QueryNone && s.LLM.Available() && text != UntranscribedAudio {
		reply, err := s.LLM.Complete(ctx, conversationPrompt(user, categories, payables), text)
		if err == nil && strings.TrimSpace(reply) != "" {
			return strings.TrimSpace(reply)
		}
		log.Warnw("conversational reply failed, using help text", "error", err)
	}

	reply, err := s.Query.Respond(ctx, user.ID, text)
	if err != nil {
		log.Errorw("query responder failed", "error", err)
		return ErrorReply
	}
	return reply
}

func (s *chatService) deliver(ctx context.Context, log *zap.SugaredLogger, to, reply string) {
	if !s.Messenger.Available() {
		log.Warnw("reply not delivered, WhatsApp not configured")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()
	if err := s.Messenger.SendText(ctx, to, reply); err != nil {
		log.Errorw("failed to deliver reply", "error", err)
	}
}

// parseDate reads a YYYY-MM-DD date, defaulting to today.
func (s *chatService) parseDate(raw string) time.Time {
	if d, err := time.Parse(isoDate, strings.TrimSpace(raw)); err == nil {
		return d
	}
	return clock.Today(s.Clock)
}

// parsePaymentMethod maps the model's answer to a payment method. The model
// sometimes echoes the user's Portuguese wording instead of the enum value.
func parsePaymentMethod(raw string) models.PaymentMethod {
	switch pm := models.PaymentMethod(strings.ToLower(strings.TrimSpace(raw))); pm {
	case models.PaymentMethodPix, models.PaymentMethodCard, models.PaymentMethodCash, models.PaymentMethodTransfer:
		return pm
	case "cartão", "cartao", "crédito", "credito", "débito", "debito":
		return models.PaymentMethodCard
	case "transferência", "transferencia", "ted", "doc":
		return models.PaymentMethodTransfer
	default:
		return models.PaymentMethodCash
	}
}

func transactionReply(txType models.TransactionType, amount decimal.Decimal, category string) string {
	label := "Despesa"
	if txType == models.TransactionTypeIncome {
		label = "Receita"
	}
	return fmt.Sprintf("✅ Transação registrada: %s de %s na categoria %s", label, money.Format(amount), category)
}

func categoryLines(categories []models.Category) string {
	if len(categories) == 0 {
		return "- " + models.FallbackCategoryName + " (expense)"
	}
	lines := make([]string, len(categories))
	for i, c := range categories {
		lines[i] = fmt.Sprintf("- %s (%s)", c.Name, c.Type)
	}
	return strings.Join(lines, "\n")
}

func payableLines(payables []models.Bill) string {
	if len(payables) == 0 {
		return "- nenhuma"
	}
	lines := make([]string, len(payables))
	for i, b := range payables {
		lines[i] = fmt.Sprintf("- %s: %s, vence em %s", b.PartyName, money.Format(b.Amount), b.DueDate.Format(isoDate))
	}
	return strings.Join(lines, "\n")
}

func classificationPrompt(today time.Time, categories []models.Category, payables []models.Bill) string {
	return fmt.Sprintf(`Você analisa mensagens de um usuário brasileiro e decide se descrevem uma transação financeira.
Hoje é %s.

Categorias do usuário:
%s

Contas a pagar pendentes:
%s

Responda SOMENTE com um objeto JSON, sem texto adicional:
{"isTransaction": boolean, "amount": number, "type": "income" | "expense", "category": string, "description": string, "date": "YYYY-MM-DD", "payment_method": "pix" | "card" | "cash" | "transfer", "supplier_name": string, "client_name": string}

Use uma das categorias acima quando possível. Gastos, compras e pagamentos são "expense"; vendas e recebimentos são "income".
Se a mensagem for uma pergunta ou conversa, responda {"isTransaction": false}.`,
		today.Format(isoDate), categoryLines(categories), payableLines(payables))
}

func conversationPrompt(user *models.User, categories []models.Category, payables []models.Bill) string {
	return fmt.Sprintf(`Você é um assistente financeiro inteligente. Seu nome é Lasy Finance.
Você conversa com %s pelo WhatsApp.

Categorias do usuário:
%s

Contas a pagar pendentes:
%s

Responda em português do Brasil, de forma curta e amigável, usando emojis quando fizer sentido.
Você pode registrar transações (por exemplo "Gastei R$ 50 no mercado") e informar saldo e resumo do mês.`,
		user.Name, categoryLines(categories), payableLines(payables))
}
