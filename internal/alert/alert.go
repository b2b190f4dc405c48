// Package alert emails low-stock notifications and keeps a daily event log
// in redis for the summary mail.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rogerio-castellano/business-ledger/internal/models"
	"github.com/rogerio-castellano/business-ledger/internal/redissvc"
)

var (
	alertFrom        = os.Getenv("ALERT_FROM")  // sender email
	alertTo          = os.Getenv("ALERT_TO")    // receiver email
	smtpServer       = os.Getenv("SMTP_SERVER") // smtp.example.com
	smtpPort         = os.Getenv("SMTP_PORT")   // e.g., 587
	smtpUser         = os.Getenv("SMTP_USER")
	smtpPassword     = os.Getenv("SMTP_PASS")
	smtpAuthDisabled = os.Getenv("SMTP_AUTH_DISABLED")

	rdb *redis.Client
	ctx context.Context
)

func SetRedisService(rs *redissvc.RedisService) {
	rdb = rs.Rdb()
	ctx = rs.Ctx()
}

// Notifier adapts the package to the ledger's LowStockNotifier interface.
type Notifier struct{}

func (Notifier) NotifyLowStock(p models.Product) {
	LowStock(p)
}

// LowStock mails an alert for a product that fell below its threshold and
// logs the event for the daily summary. Sending happens asynchronously.
func LowStock(p models.Product) {
	subject := fmt.Sprintf("⚠️ LOW STOCK: %s", p.Name)
	body := fmt.Sprintf("Product: %s (id %d)\nQuantity: %d\nThreshold: %d\nTime: %s",
		p.Name, p.ID, p.Quantity, p.Threshold, time.Now().Format(time.RFC3339))

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", alertFrom, alertTo, subject, body)

	addr := fmt.Sprintf("%s:%s", smtpServer, smtpPort)
	auth := smtp.PlainAuth("", smtpUser, smtpPassword, smtpServer)

	if smtpAuthDisabled != "" {
		auth = nil
	}

	go func() {
		err := smtp.SendMail(addr, auth, alertFrom, []string{alertTo}, []byte(msg))
		if err != nil {
			log.Printf("Failed to send low-stock email: %v\n", err)
		}
	}()

	logStockEvent(p)
}

type StockLogEntry struct {
	ProductID int       `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Threshold int       `json:"threshold"`
	Time      time.Time `json:"time"`
}

const DailyStockLogKey = "alerts:lowstock:daily"

func logStockEvent(p models.Product) {
	if rdb == nil {
		return
	}
	entry := StockLogEntry{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  p.Quantity,
		Threshold: p.Threshold,
		Time:      time.Now(),
	}
	data, _ := json.Marshal(entry)
	_ = rdb.RPush(ctx, DailyStockLogKey, data).Err()
}

// StartDailyStockSummary mails the day's low-stock events shortly before
// midnight, then repeats every interval.
func StartDailyStockSummary(interval time.Duration) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 0, 0, now.Location())
		if now.After(next) {
			next = next.Add(interval)
		}
		time.Sleep(time.Until(next))
		SendDailyStockSummary()
	}
}

func SendDailyStockSummary() {
	if rdb == nil {
		return
	}
	entries, err := rdb.LRange(ctx, DailyStockLogKey, 0, -1).Result()
	if err != nil || len(entries) == 0 {
		return
	}
	_ = rdb.Del(ctx, DailyStockLogKey).Err() // clear after reading

	var logs []StockLogEntry
	productCounts := make(map[string]int)

	for _, item := range entries {
		var entry StockLogEntry
		if err := json.Unmarshal([]byte(item), &entry); err == nil {
			logs = append(logs, entry)
			productCounts[entry.Name]++
		}
	}

	var sb strings.Builder
	sb.WriteString("<h2>📊 Daily Low-Stock Summary</h2>")
	sb.WriteString(fmt.Sprintf("<p>Total events: <strong>%d</strong></p>", len(logs)))

	sb.WriteString("<h3>📦 By Product</h3><ul>")
	for name, count := range productCounts {
		sb.WriteString(fmt.Sprintf("<li><code>%s</code>: %d</li>", name, count))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h3>📋 Full Log</h3><ul>")
	for _, entry := range logs {
		sb.WriteString(fmt.Sprintf("<li><b>%s</b> at %d units (threshold %d) at %s</li>",
			entry.Name, entry.Quantity, entry.Threshold, entry.Time.Format(time.RFC822)))
	}
	sb.WriteString("</ul>")
	subject := "📊 Daily Low-Stock Report"

	msg := strings.Join([]string{
		"From: " + alertFrom,
		"To: " + alertTo,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		sb.String(),
	}, "\r\n")

	addr := fmt.Sprintf("%s:%s", smtpServer, smtpPort)
	auth := smtp.PlainAuth("", smtpUser, smtpPassword, smtpServer)

	if smtpAuthDisabled != "" {
		auth = nil
	}

	go func() {
		err = smtp.SendMail(addr, auth, alertFrom, []string{alertTo}, []byte(msg))
		if err != nil {
			log.Printf("❌ Failed to send email: %v\n", err)
		} else {
			log.Println("📬 Daily low-stock summary sent via SMTP.")
		}
	}()
}
