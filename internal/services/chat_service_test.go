package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"lasyfinance/internal/models"
	"lasyfinance/internal/testutil"
	"lasyfinance/internal/whatsapp"
)

func newTestChatService(db *gorm.DB, model *fakeLLM, messenger *fakeMessenger) ChatServicer {
	clk := fixedClock()
	reports := NewReportService(db, clk)
	return NewChatService(ChatDeps{
		DB:           db,
		Users:        NewUserService(db),
		Categories:   NewCategoryService(db),
		Transactions: NewTransactionService(db, clk),
		Bills:        NewBillService(db, clk),
		Messages:     NewMessageLogService(db),
		Query:        NewQueryResponder(reports, clk),
		LLM:          model,
		Messenger:    messenger,
		Clock:        clk,
	})
}

var messageSeq atomic.Int64

func textMessage(from, text string) whatsapp.InboundMessage {
	return whatsapp.InboundMessage{From: from, MessageID: fmt.Sprintf("wamid.test%d", messageSeq.Add(1)), Text: text}
}

const marketJSON = "```json\n" + `{"isTransaction": true, "amount": 50, "type": "expense", "category": "Alimentação", "description": "mercado", "payment_method": "card", "supplier_name": "Mercado"}` + "\n```"

func TestHandleInbound_RecordsTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	model := &fakeLLM{available: true, extracted: marketJSON}
	messenger := &fakeMessenger{available: true}
	svc := newTestChatService(db, model, messenger)

	reply := svc.HandleInbound(context.Background(), textMessage("5511999990000", "Gastei R$ 50 no mercado com cartão"))

	want := "✅ Transação registrada: Despesa de R$ 50.00 na categoria Alimentação"
	if reply != want {
		t.Errorf("expected %q, got %q", want, reply)
	}

	var user models.User
	if err := db.First(&user, "whatsapp_number = ?", "5511999990000").Error; err != nil {
		t.Fatalf("expected sender to be created: %v", err)
	}

	var txs []models.Transaction
	if err := db.Where("user_id = ?", user.ID).Find(&txs).Error; err != nil {
		t.Fatalf("failed to load transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected exactly one transaction, got %d", len(txs))
	}
	tx := txs[0]
	if tx.Type != models.TransactionTypeExpense {
		t.Errorf("expected expense, got %s", tx.Type)
	}
	testutil.AssertDecimal(t, tx.Amount, "50")
	if tx.PaymentMethod != models.PaymentMethodCard {
		t.Errorf("expected card, got %s", tx.PaymentMethod)
	}
	if tx.CategoryID == nil || tx.Category != "Alimentação" {
		t.Errorf("expected the seeded Alimentação category, got %v %q", tx.CategoryID, tx.Category)
	}
	if !tx.Date.Equal(testutil.Day(2026, time.March, 15)) {
		t.Errorf("expected processing date, got %s", tx.Date)
	}
	if tx.Source != models.TransactionSourceWhatsApp || tx.Counterparty != "Mercado" {
		t.Errorf("unexpected source/counterparty %s %q", tx.Source, tx.Counterparty)
	}

	var entry models.MessageLog
	if err := db.First(&entry, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("expected message log: %v", err)
	}
	if entry.TransactionID == nil || *entry.TransactionID != tx.ID {
		t.Errorf("expected log linked to transaction %s, got %v", tx.ID, entry.TransactionID)
	}
	if entry.Response != want || entry.OriginalMessage != "Gastei R$ 50 no mercado com cartão" {
		t.Errorf("unexpected log %q / %q", entry.OriginalMessage, entry.Response)
	}
	if !strings.Contains(entry.ParsedData, `"isTransaction":true`) {
		t.Errorf("expected parsed data stored, got %q", entry.ParsedData)
	}

	sent := messenger.messages()
	if len(sent) != 1 || sent[0].to != "5511999990000" || sent[0].body != want {
		t.Errorf("expected reply delivered, got %+v", sent)
	}
}

func TestHandleInbound_Redelivery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	model := &fakeLLM{available: true, extracted: marketJSON}
	messenger := &fakeMessenger{available: true}
	svc := newTestChatService(db, model, messenger)

	msg := textMessage("5511999991111", "Gastei R$ 50 no mercado com cartão")
	first := svc.HandleInbound(context.Background(), msg)
	second := svc.HandleInbound(context.Background(), msg)

	if second != first {
		t.Errorf("expected the logged reply %q, got %q", first, second)
	}
	if n := testutil.CountRows(t, db, &models.Transaction{}, ""); n != 1 {
		t.Errorf("expected one transaction, got %d", n)
	}
	if n := testutil.CountRows(t, db, &models.MessageLog{}, "channel_message_id = ?", msg.MessageID); n != 1 {
		t.Errorf("expected one log entry, got %d", n)
	}
	if len(messenger.messages()) != 1 {
		t.Errorf("expected one reply sent, got %d", len(messenger.messages()))
	}
	if model.extractCalls != 1 {
		t.Errorf("expected one classification, got %d", model.extractCalls)
	}
}

func TestHandleInbound_UnknownSenderCreatedOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestChatService(db, &fakeLLM{}, &fakeMessenger{})

	svc.HandleInbound(context.Background(), textMessage("5511955554444", "oi"))
	svc.HandleInbound(context.Background(), textMessage("5511955554444", "saldo"))

	if n := testutil.CountRows(t, db, &models.User{}, "whatsapp_number = ?", "5511955554444"); n != 1 {
		t.Fatalf("expected one user, got %d", n)
	}
	var user models.User
	db.First(&user, "whatsapp_number = ?", "5511955554444")
	if n := testutil.CountRows(t, db, &models.Category{}, "user_id = ?", user.ID); n != int64(len(models.DefaultCategories)) {
		t.Errorf("expected default categories once, got %d", n)
	}
	if n := testutil.CountRows(t, db, &models.MessageLog{}, "user_id = ?", user.ID); n != 2 {
		t.Errorf("expected two log entries, got %d", n)
	}
}

func TestHandleInbound_NonTransactional(t *testing.T) {
	t.Run("balance_query_without_llm", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestChatUser(t, db, "5511900000001")
		testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeIncome, "1000")
		testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, "400")
		model := &fakeLLM{}
		svc := newTestChatService(db, model, &fakeMessenger{})

		reply := svc.HandleInbound(context.Background(), textMessage("5511900000001", "Qual meu saldo?"))

		if !strings.Contains(reply, "600.00") {
			t.Errorf("expected balance in reply, got %q", reply)
		}
		if n := testutil.CountRows(t, db, &models.Transaction{}, "user_id = ?", user.ID); n != 2 {
			t.Errorf("expected no new transaction, got %d rows", n)
		}
		if model.extractCalls != 0 {
			t.Errorf("expected no classification without a configured model")
		}
	})

	t.Run("keywords_read_original_text", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateTestChatUser(t, db, "5511900000002")
		model := &fakeLLM{available: true, extracted: `{"isTransaction": false, "description": "pergunta sobre saldo"}`, completion: "não deveria ser usado"}
		svc := newTestChatService(db, model, &fakeMessenger{})

		reply := svc.HandleInbound(context.Background(), textMessage("5511900000002", "me mostra o resumo"))

		if !strings.HasPrefix(reply, "📊 Resumo do mês") {
			t.Errorf("expected month summary, got %q", reply)
		}
		if model.completeCalls != 0 {
			t.Error("expected keyword queries to skip the conversational reply")
		}
	})

	t.Run("conversational_reply", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		model := &fakeLLM{available: true, extracted: `{"isTransaction": false}`, completion: "Olá! 😊 Como posso ajudar?"}
		svc := newTestChatService(db, model, &fakeMessenger{})

		reply := svc.HandleInbound(context.Background(), textMessage("5511900000003", "bom dia"))
		if reply != "Olá! 😊 Como posso ajudar?" {
			t.Errorf("expected model reply, got %q", reply)
		}
	})

	t.Run("conversation_failure_falls_back_to_help", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		model := &fakeLLM{available: true, extracted: `{"isTransaction": false}`, completeErr: errors.New("quota")}
		svc := newTestChatService(db, model, &fakeMessenger{})

		reply := svc.HandleInbound(context.Background(), textMessage("5511900000004", "bom dia"))
		if reply != HelpReply {
			t.Errorf("expected help text, got %q", reply)
		}
	})
}

func TestHandleInbound_RejectedClassifications(t *testing.T) {
	tests := []struct {
		name      string
		extracted string
		err       error
	}{
		{"zero_amount", `{"isTransaction": true, "amount": 0, "type": "expense"}`, nil},
		{"negative_amount", `{"isTransaction": true, "amount": -10, "type": "expense"}`, nil},
		{"unknown_direction", `{"isTransaction": true, "amount": 10, "type": "transfer"}`, nil},
		{"missing_amount", `{"isTransaction": true, "type": "income"}`, nil},
		{"flag_off", `{"isTransaction": false, "amount": 10, "type": "income"}`, nil},
		{"malformed_json", `not json at all`, nil},
		{"model_error", "", errors.New("timeout")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			model := &fakeLLM{available: true, extracted: tc.extracted, extractErr: tc.err, completeErr: errors.New("off")}
			svc := newTestChatService(db, model, &fakeMessenger{})

			reply := svc.HandleInbound(context.Background(), textMessage("5511900000010", "algo"))

			if reply != HelpReply {
				t.Errorf("expected help text, got %q", reply)
			}
			if n := testutil.CountRows(t, db, &models.Transaction{}, ""); n != 0 {
				t.Errorf("expected no transaction, got %d", n)
			}
		})
	}
}

func TestHandleInbound_TransactionDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	model := &fakeLLM{available: true, extracted: `{"isTransaction": true, "amount": "1.234,50", "type": "income", "category": "Consultoria", "date": "ontem", "payment_method": "boleto", "client_name": "ACME"}`}
	svc := newTestChatService(db, model, &fakeMessenger{})

	reply := svc.HandleInbound(context.Background(), textMessage("5511900000020", "recebi 1.234,50 da ACME"))

	if reply != "✅ Transação registrada: Receita de R$ 1234.50 na categoria Consultoria" {
		t.Errorf("unexpected reply %q", reply)
	}

	var tx models.Transaction
	if err := db.First(&tx).Error; err != nil {
		t.Fatalf("expected transaction: %v", err)
	}
	if tx.CategoryID != nil {
		t.Errorf("expected unknown category to stay unlinked, got %v", *tx.CategoryID)
	}
	if tx.PaymentMethod != models.PaymentMethodCash {
		t.Errorf("expected cash default, got %s", tx.PaymentMethod)
	}
	if !tx.Date.Equal(testutil.Day(2026, time.March, 15)) {
		t.Errorf("expected today for invalid date, got %s", tx.Date)
	}
	if tx.Counterparty != "ACME" {
		t.Errorf("expected client as counterparty, got %q", tx.Counterparty)
	}
}

func TestHandleInbound_ExplicitDateAndMismatchedCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	model := &fakeLLM{available: true, extracted: `{"isTransaction": true, "amount": 80, "type": "income", "category": "alimentação", "date": "2026-03-01"}`}
	svc := newTestChatService(db, model, &fakeMessenger{})

	svc.HandleInbound(context.Background(), textMessage("5511900000021", "vendi 80 de marmita dia 1"))

	var tx models.Transaction
	if err := db.First(&tx).Error; err != nil {
		t.Fatalf("expected transaction: %v", err)
	}
	if tx.CategoryID != nil {
		t.Error("expected an expense category not to be linked to income")
	}
	if !tx.Date.Equal(testutil.Day(2026, time.March, 1)) {
		t.Errorf("expected classified date, got %s", tx.Date)
	}
}

func TestHandleInbound_Audio(t *testing.T) {
	audio := &whatsapp.Media{ID: "media-1", MIMEType: "audio/ogg; codecs=opus"}

	t.Run("transcribed_in_portuguese", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		model := &fakeLLM{available: true, transcript: "gastei 50 no mercado", extracted: marketJSON}
		messenger := &fakeMessenger{available: true, media: []byte("OggS"), mediaMIME: "audio/ogg"}
		svc := newTestChatService(db, model, messenger)

		reply := svc.HandleInbound(context.Background(), whatsapp.InboundMessage{From: "5511900000030", Audio: audio})

		if !strings.HasPrefix(reply, "✅ Transação registrada") {
			t.Errorf("expected transaction reply, got %q", reply)
		}
		if len(model.languages) != 1 || !strings.Contains(model.languages[0], "Portuguese") {
			t.Errorf("expected Portuguese transcription, got %v", model.languages)
		}
		var entry models.MessageLog
		db.First(&entry)
		if entry.MessageType != models.MessageTypeAudio || entry.OriginalMessage != "gastei 50 no mercado" {
			t.Errorf("unexpected log %s %q", entry.MessageType, entry.OriginalMessage)
		}
	})

	t.Run("download_failure_uses_placeholder", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		model := &fakeLLM{available: true, extracted: marketJSON}
		messenger := &fakeMessenger{available: true, downloadErr: errors.New("404")}
		svc := newTestChatService(db, model, messenger)

		reply := svc.HandleInbound(context.Background(), whatsapp.InboundMessage{From: "5511900000031", Audio: audio})

		if reply != HelpReply {
			t.Errorf("expected help text, got %q", reply)
		}
		var entry models.MessageLog
		db.First(&entry)
		if entry.OriginalMessage != UntranscribedAudio {
			t.Errorf("expected placeholder transcript, got %q", entry.OriginalMessage)
		}
		if n := testutil.CountRows(t, db, &models.Transaction{}, ""); n != 0 {
			t.Errorf("expected no transaction, got %d", n)
		}
	})

	t.Run("transcription_failure_uses_placeholder", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		model := &fakeLLM{available: true, transcribeErr: errors.New("bad audio")}
		messenger := &fakeMessenger{available: true, media: []byte("OggS")}
		svc := newTestChatService(db, model, messenger)

		svc.HandleInbound(context.Background(), whatsapp.InboundMessage{From: "5511900000032", Audio: audio})

		var entry models.MessageLog
		db.First(&entry)
		if entry.OriginalMessage != UntranscribedAudio {
			t.Errorf("expected placeholder transcript, got %q", entry.OriginalMessage)
		}
	})
}

func TestHandleInbound_Failures(t *testing.T) {
	t.Run("sender_resolution_error_apologizes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		messenger := &fakeMessenger{available: true}
		svc := newTestChatService(db, &fakeLLM{}, messenger)

		reply := svc.HandleInbound(context.Background(), textMessage("", "saldo"))

		if reply != ErrorReply {
			t.Errorf("expected apology, got %q", reply)
		}
		if len(messenger.messages()) != 1 {
			t.Error("expected apology to be delivered")
		}
	})

	t.Run("send_failure_keeps_reply", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		messenger := &fakeMessenger{available: true, sendErr: errors.New("graph api down")}
		svc := newTestChatService(db, &fakeLLM{}, messenger)

		reply := svc.HandleInbound(context.Background(), textMessage("5511900000040", "oi"))
		if reply != HelpReply {
			t.Errorf("expected help text, got %q", reply)
		}
	})

	t.Run("delivers_after_request_deadline", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		messenger := &fakeMessenger{available: true}
		svc := newTestChatService(db, &fakeLLM{available: true, blocking: true}, messenger)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		reply := svc.HandleInbound(ctx, textMessage("5511900000042", "oi"))

		if reply != HelpReply {
			t.Errorf("expected help text, got %q", reply)
		}
		sent := messenger.messages()
		if len(sent) != 1 || sent[0].body != HelpReply {
			t.Fatalf("expected reply to be delivered, got %+v", sent)
		}
	})

	t.Run("delivers_on_cancelled_context", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		messenger := &fakeMessenger{available: true}
		svc := newTestChatService(db, &fakeLLM{}, messenger)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc.HandleInbound(ctx, textMessage("5511900000043", "saldo"))

		if len(messenger.messages()) != 1 {
			t.Error("expected reply to be delivered for a later message in the batch")
		}
	})

	t.Run("unconfigured_messenger_skips_delivery", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		messenger := &fakeMessenger{}
		svc := newTestChatService(db, &fakeLLM{}, messenger)

		svc.HandleInbound(context.Background(), textMessage("5511900000041", "oi"))
		if len(messenger.messages()) != 0 {
			t.Error("expected no delivery attempt")
		}
	})
}

func TestClassificationAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`50`, "50", true},
		{`49.9`, "49.9", true},
		{`"R$ 1.234,56"`, "1234.56", true},
		{`"R$ 1.500"`, "1500", true},
		{`1.500`, "1.5", true},
		{`"abc"`, "", false},
		{`null`, "", false},
		{``, "", false},
	}
	for _, tc := range tests {
		c := classification{Amount: []byte(tc.raw)}
		got, ok := c.amount()
		if ok != tc.ok {
			t.Errorf("amount(%s): ok = %v, want %v", tc.raw, ok, tc.ok)
			continue
		}
		if ok {
			testutil.AssertDecimal(t, got, tc.want)
		}
	}
}

func TestParsePaymentMethod(t *testing.T) {
	tests := []struct {
		raw  string
		want models.PaymentMethod
	}{
		{"pix", models.PaymentMethodPix},
		{"Card", models.PaymentMethodCard},
		{"cartão", models.PaymentMethodCard},
		{"débito", models.PaymentMethodCard},
		{"transferência", models.PaymentMethodTransfer},
		{"", models.PaymentMethodCash},
		{"boleto", models.PaymentMethodCash},
	}
	for _, tt := range tests {
		if got := parsePaymentMethod(tt.raw); got != tt.want {
			t.Errorf("parsePaymentMethod(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}
