package telegram

import (
	"context"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Tfeater/TfeaterMathLab/api/internal/engine"
	"github.com/Tfeater/TfeaterMathLab/api/internal/explain"
	"github.com/Tfeater/TfeaterMathLab/api/internal/natural"
	"github.com/Tfeater/TfeaterMathLab/api/internal/store"
	"github.com/Tfeater/TfeaterMathLab/api/internal/textsolve"
)

const replyLimit = 3900

type Router struct {
	Bot       *tgbotapi.BotAPI
	Explainer *explain.Explainer
	Solver    *textsolve.Solver
	Repo      *store.CalculationRepo
}

func (r *Router) HandleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	switch upd.Message.Command() {
	case "start":
		r.send(cid, "Send me a math problem and I will solve it step by step.\n"+
			"Examples:\n"+
			"  solve x^2 - 5x + 6 = 0\n"+
			"  differentiate sin(x)\n"+
			"  limit of 1/x as x approaches 0 from the right\n"+
			"Commands: /health")
	case "health":
		r.send(cid, "✅ OK")
	default:
		r.send(cid, "Unknown command. Try /start")
	}
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(upd)
		return
	}
	text := strings.TrimSpace(upd.Message.Text)
	if text == "" {
		r.send(upd.Message.Chat.ID, "Send a math problem as plain text.")
		return
	}
	r.handleProblem(upd.Message.Chat.ID, text)
}

func (r *Router) handleProblem(cid int64, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	params, err := natural.Extract(text)
	if err != nil {
		// Nothing structured to evaluate: hand the whole message to the
		// free-text solver.
		r.solveFreeText(ctx, cid, text)
		return
	}

	out := engine.NewPipeline().Run(params)
	if out.Fallback != nil {
		r.solveFreeText(ctx, cid, out.Fallback.OriginalInput)
		return
	}

	steps, source := r.overlay(ctx, out.Answer)
	r.persist(ctx, out.Answer, source, steps)
	r.SendResult(cid, formatAnswer(out.Answer, steps))
}

func (r *Router) solveFreeText(ctx context.Context, cid int64, text string) {
	if r.Solver == nil {
		r.send(cid, "I could not read that as a math expression, and the free-text solver is not configured.")
		return
	}
	sol, err := r.Solver.Solve(ctx, text)
	if err != nil {
		log.Printf("telegram: free-text solve: %v", err)
		r.send(cid, "Sorry, I could not solve that one. Try rephrasing or sending a plain expression.")
		return
	}
	r.SendResult(cid, formatSolution(sol))
}

func (r *Router) overlay(ctx context.Context, answer *engine.PackagedAnswer) ([]engine.Step, string) {
	if r.Explainer == nil {
		return answer.Steps, explain.SourceEngine
	}
	return r.Explainer.Overlay(ctx, answer)
}

func (r *Router) persist(ctx context.Context, answer *engine.PackagedAnswer, source string, steps []engine.Step) {
	if r.Repo == nil {
		return
	}
	if err := r.Repo.Insert(ctx, answer, source, steps); err != nil {
		log.Printf("telegram: store calculation: %v", err)
	}
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) SendResult(chatID int64, text string) {
	if len(text) > replyLimit {
		text = text[:replyLimit] + "…"
	}
	r.send(chatID, text)
}
