package catalog

import (
	"context"
	"fmt"

	"github.com/eugenetaranov/mangosctl/internal/parse"
)

// ItemStack is an item ID with a count, as attached to mail.
type ItemStack struct {
	ID    int `mapstructure:"id" json:"id"`
	Count int `mapstructure:"count" json:"count"`
}

func (s ItemStack) String() string {
	return fmt.Sprintf("%d:%d", s.ID, s.Count)
}

var mailRule = parse.SentinelRule{
	Command: "send",
	Success: []string{"Mail sent to "},
	Default: parse.Failure,
}

// mailLine builds "send <kind...> <target> "<subject>" "<body>" <extra...>".
func mailLine(kind []string, target, subject, body string, extra ...string) string {
	tokens := append([]string{"send"}, kind...)
	tokens = append(tokens, target, quote(subject), quote(body))
	return line(append(tokens, extra...)...)
}

func stackTokens(items []ItemStack) []string {
	tokens := make([]string, len(items))
	for i, it := range items {
		tokens[i] = it.String()
	}
	return tokens
}

func sendMailCmd(to, subject, body string) string {
	return mailLine([]string{"mail"}, to, subject, body)
}

func sendMoneyCmd(to, subject, body string, money int) string {
	return mailLine([]string{"money"}, to, subject, body, itoa(money))
}

func sendItemsCmd(to, subject, body string, items []ItemStack) string {
	return mailLine([]string{"items"}, to, subject, body, stackTokens(items)...)
}

func sendMassMailCmd(mask, subject, body string) string {
	return mailLine([]string{"mass", "mail"}, mask, subject, body)
}

func sendMassMoneyCmd(mask, subject, body string, money int) string {
	return mailLine([]string{"mass", "money"}, mask, subject, body, itoa(money))
}

func sendMassItemsCmd(mask, subject, body string, items []ItemStack) string {
	return mailLine([]string{"mass", "items"}, mask, subject, body, stackTokens(items)...)
}

func sendMessageCmd(to, message string) string {
	return line("send", "message", to, quote(message))
}

// mail checks the quoted text and sends cmd with the mail sentinel.
func (c *Catalog) mail(ctx context.Context, command, subject, body, cmd string) (parse.Verdict, error) {
	if err := checkQuotable(command, "subject", subject, "body", body); err != nil {
		return parse.Verdict{}, err
	}
	return c.sentinel(ctx, cmd, mailRule)
}

// SendMail mails a character. Subject and body are sent quoted and must
// not contain a double quote.
func (c *Catalog) SendMail(ctx context.Context, to, subject, body string) (parse.Verdict, error) {
	return c.mail(ctx, "send mail", subject, body, sendMailCmd(to, subject, body))
}

// SendMoney mails copper to a character.
func (c *Catalog) SendMoney(ctx context.Context, to, subject, body string, money int) (parse.Verdict, error) {
	return c.mail(ctx, "send money", subject, body, sendMoneyCmd(to, subject, body, money))
}

// SendItems mails item stacks to a character.
func (c *Catalog) SendItems(ctx context.Context, to, subject, body string, items []ItemStack) (parse.Verdict, error) {
	return c.mail(ctx, "send items", subject, body, sendItemsCmd(to, subject, body, items))
}

// SendMassMail mails every character matching mask: "all", "alliance",
// "horde", a race name, or "#mask" for a race bitmask.
func (c *Catalog) SendMassMail(ctx context.Context, mask, subject, body string) (parse.Verdict, error) {
	return c.mail(ctx, "send mass mail", subject, body, sendMassMailCmd(mask, subject, body))
}

// SendMassMoney mails copper to every character matching mask.
func (c *Catalog) SendMassMoney(ctx context.Context, mask, subject, body string, money int) (parse.Verdict, error) {
	return c.mail(ctx, "send mass money", subject, body, sendMassMoneyCmd(mask, subject, body, money))
}

// SendMassItems mails item stacks to every character matching mask.
func (c *Catalog) SendMassItems(ctx context.Context, mask, subject, body string, items []ItemStack) (parse.Verdict, error) {
	return c.mail(ctx, "send mass items", subject, body, sendMassItemsCmd(mask, subject, body, items))
}

// SendMessage shows a message on an online character's screen.
func (c *Catalog) SendMessage(ctx context.Context, to, message string) (string, error) {
	if err := checkQuotable("send message", "message", message); err != nil {
		return "", err
	}
	return c.passthrough(ctx, sendMessageCmd(to, message))
}

func announceCmd(message string) string { return line("announce", message) }

func notifyCmd(message string) string { return line("notify", message) }

// Announce broadcasts a chat message to every player.
func (c *Catalog) Announce(ctx context.Context, message string) (string, error) {
	return c.passthrough(ctx, announceCmd(message))
}

// Notify broadcasts an on-screen notification to every player.
func (c *Catalog) Notify(ctx context.Context, message string) (string, error) {
	return c.passthrough(ctx, notifyCmd(message))
}
