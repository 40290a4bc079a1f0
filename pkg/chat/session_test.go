package chat_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/pkg/chat"
	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/pkg/provider"
	"github.com/papercomputeco/cortex/pkg/provider/providertest"
)

var _ = Describe("Engine", func() {
	var (
		ctx     context.Context
		session *chat.Session
	)

	BeforeEach(func() {
		ctx = context.Background()
		session = chat.NewSession("You are helpful.")
	})

	It("appends the user message and the assistant reply on success", func() {
		script := providertest.New("Hel", "lo", "!")
		engine := chat.NewEngine(script, chat.Settings{Model: "m"}, zap.NewNop())

		reply, err := engine.Send(ctx, session, "Hi", chat.Discard)
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Content).To(Equal("Hello!"))

		conv := session.Conversation()
		Expect(conv.Len()).To(Equal(3))
		Expect(conv.All()).To(Equal([]llm.Message{
			llm.System("You are helpful."), llm.User("Hi"), llm.Assistant("Hello!"),
		}))

		reqs := script.Requests()
		Expect(reqs).To(HaveLen(1))
		Expect(reqs[0].Model).To(Equal("m"))
		Expect(reqs[0].Messages).To(Equal([]llm.Message{llm.System("You are helpful."), llm.User("Hi")}))
	})

	It("grows the conversation by two per successful turn", func() {
		engine := chat.NewEngine(providertest.New("ok"), chat.Settings{Model: "m"}, zap.NewNop())

		for i := 0; i < 3; i++ {
			before := session.Conversation().Len()
			_, err := engine.Send(ctx, session, "again", chat.Discard)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.Conversation().Len()).To(Equal(before + 2))
		}
	})

	It("commits no assistant message when the stream fails", func() {
		for k := 0; k < 3; k++ {
			s := chat.NewSession("sys")
			engine := chat.NewEngine(
				providertest.Failing(k, provider.ErrTruncatedStream, "a", "b", "c"),
				chat.Settings{Model: "m"}, zap.NewNop(),
			)

			_, err := engine.Send(ctx, s, "Hi", chat.Discard)
			Expect(err).To(MatchError(provider.ErrTruncatedStream))

			for _, m := range s.Conversation().All() {
				Expect(m.Role).NotTo(Equal(llm.RoleAssistant))
			}
			Expect(s.Conversation().History()).To(Equal([]llm.Message{llm.User("Hi")}))
		}
	})

	It("stays usable after a failed turn", func() {
		script := providertest.Failing(1, errors.New("boom"), "x", "y")
		engine := chat.NewEngine(script, chat.Settings{Model: "m"}, zap.NewNop())

		_, err := engine.Send(ctx, session, "first", chat.Discard)
		Expect(err).To(HaveOccurred())

		script.Err = nil
		reply, err := engine.Send(ctx, session, "second", chat.Discard)
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Content).To(Equal("xy"))
	})

	It("rejects blank input without touching the conversation", func() {
		engine := chat.NewEngine(providertest.New("x"), chat.Settings{}, zap.NewNop())

		_, err := engine.Send(ctx, session, "   ", chat.Discard)
		Expect(err).To(MatchError(chat.ErrEmptyMessage))
		Expect(session.Conversation().Len()).To(Equal(1))
	})

	It("refuses a second turn while one is streaming", func() {
		engine := chat.NewEngine(providertest.New("a", "b"), chat.Settings{Model: "m"}, zap.NewNop())

		var nestedErr error
		display := chat.DisplayFunc(func(f chat.Frame) error {
			if nestedErr == nil && !f.Final {
				_, nestedErr = engine.Send(ctx, session, "interrupt", chat.Discard)
				Expect(session.Busy()).To(BeTrue())
			}
			return nil
		})

		_, err := engine.Send(ctx, session, "Hi", display)
		Expect(err).NotTo(HaveOccurred())
		Expect(nestedErr).To(MatchError(chat.ErrBusy))
		Expect(session.Busy()).To(BeFalse())
		Expect(session.Conversation().Len()).To(Equal(3))
	})

	It("refuses to reset while a turn is streaming", func() {
		engine := chat.NewEngine(providertest.New("a", "b"), chat.Settings{Model: "m"}, zap.NewNop())

		var resetErr error
		display := chat.DisplayFunc(func(f chat.Frame) error {
			if resetErr == nil && !f.Final {
				resetErr = session.Reset()
			}
			return nil
		})

		_, err := engine.Send(ctx, session, "Hi", display)
		Expect(err).NotTo(HaveOccurred())
		Expect(resetErr).To(MatchError(chat.ErrBusy))
		Expect(session.Conversation().All()).To(Equal([]llm.Message{
			llm.System("You are helpful."), llm.User("Hi"), llm.Assistant("ab"),
		}))

		Expect(session.Reset()).To(Succeed())
		Expect(session.Conversation().All()).To(Equal([]llm.Message{llm.System("You are helpful.")}))
	})

	It("sends only the window chosen by the policy", func() {
		script := providertest.New("ok")
		engine := chat.NewEngine(script, chat.Settings{Model: "m", Policy: chat.LastN{N: 1}}, zap.NewNop())

		_, err := engine.Send(ctx, session, "one", chat.Discard)
		Expect(err).NotTo(HaveOccurred())
		_, err = engine.Send(ctx, session, "two", chat.Discard)
		Expect(err).NotTo(HaveOccurred())

		reqs := script.Requests()
		Expect(reqs[1].Messages).To(Equal([]llm.Message{llm.System("You are helpful."), llm.User("two")}))
		Expect(session.Conversation().Len()).To(Equal(5))
	})

	It("runs commit hooks with the committed turn only on success", func() {
		var turns []llm.Turn
		hook := func(_ context.Context, t llm.Turn) error {
			turns = append(turns, t)
			return errors.New("storage down")
		}

		ok := chat.NewEngine(providertest.New("yes"), chat.Settings{Model: "m"}, zap.NewNop(), hook)
		_, err := ok.Send(ctx, session, "Hi", chat.Discard)
		Expect(err).NotTo(HaveOccurred())

		bad := chat.NewEngine(providertest.Failing(0, errors.New("x"), "no"), chat.Settings{Model: "m"}, zap.NewNop(), hook)
		_, err = bad.Send(ctx, session, "Hi", chat.Discard)
		Expect(err).To(HaveOccurred())

		Expect(turns).To(HaveLen(1))
		Expect(turns[0].SessionID).To(Equal(session.ID))
		Expect(turns[0].Reply).To(Equal(llm.Assistant("yes")))
	})
})

var _ = Describe("UserMessage", func() {
	It("explains known failures", func() {
		Expect(chat.UserMessage(chat.ErrBusy)).To(ContainSubstring("wait"))
		Expect(chat.UserMessage(&chat.StreamError{Err: provider.ErrRateLimited})).To(ContainSubstring("rate limiting"))
	})

	It("falls back to the error text", func() {
		Expect(chat.UserMessage(&chat.StreamError{Partial: 3, Err: errors.New("boom")})).To(Equal("Error: boom"))
	})
})
