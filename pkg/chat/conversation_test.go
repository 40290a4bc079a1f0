package chat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cortex/pkg/chat"
	"github.com/papercomputeco/cortex/pkg/llm"
)

var _ = Describe("Conversation", func() {
	var conv *chat.Conversation

	BeforeEach(func() {
		conv = chat.NewConversation("be nice")
	})

	It("starts with the system instruction only", func() {
		Expect(conv.Len()).To(Equal(1))
		Expect(conv.All()).To(Equal([]llm.Message{llm.System("be nice")}))
		Expect(conv.History()).To(BeEmpty())
	})

	It("appends in order and hides the system instruction from the history", func() {
		conv.Append(llm.User("Hi"))
		conv.Append(llm.Assistant("Hello!"))

		Expect(conv.All()[0]).To(Equal(llm.System("be nice")))
		Expect(conv.History()).To(Equal([]llm.Message{llm.User("Hi"), llm.Assistant("Hello!")}))
	})

	It("returns copies that do not alias the log", func() {
		conv.Append(llm.User("Hi"))
		all := conv.All()
		all[1].Content = "changed"

		Expect(conv.All()[1].Content).To(Equal("Hi"))
	})

	It("keeps the system instruction on reset", func() {
		conv.Append(llm.User("Hi"))
		conv.Reset()

		Expect(conv.Len()).To(Equal(1))
		Expect(conv.SystemPrompt()).To(Equal("be nice"))
	})
})

var _ = Describe("HistoryPolicy", func() {
	msgs := []llm.Message{
		llm.System("sys"),
		llm.User("u1"), llm.Assistant("a1"),
		llm.User("u2"), llm.Assistant("a2"),
		llm.User("u3"),
	}

	It("KeepAll resends everything", func() {
		Expect(chat.KeepAll{}.Window(msgs)).To(Equal(msgs))
	})

	It("LastN keeps the system instruction and the tail", func() {
		window := chat.LastN{N: 3}.Window(msgs)
		Expect(window).To(Equal([]llm.Message{
			llm.System("sys"), llm.User("u2"), llm.Assistant("a2"), llm.User("u3"),
		}))
	})

	It("LastN never opens on an orphaned assistant reply", func() {
		window := chat.LastN{N: 2}.Window(msgs)
		Expect(window).To(Equal([]llm.Message{llm.System("sys"), llm.User("u3")}))
	})

	It("LastN is a no-op for short conversations", func() {
		Expect(chat.LastN{N: 10}.Window(msgs)).To(Equal(msgs))
	})

	It("never exceeds N+1 messages", func() {
		for n := 1; n <= 6; n++ {
			Expect(len(chat.LastN{N: n}.Window(msgs))).To(BeNumerically("<=", n+1))
		}
	})

	It("PolicyFor picks KeepAll for zero", func() {
		Expect(chat.PolicyFor(0)).To(Equal(chat.KeepAll{}))
		Expect(chat.PolicyFor(4)).To(Equal(chat.LastN{N: 4}))
	})
})
