package transcript_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/pkg/transcript"
)

var _ = Describe("Recorder", func() {
	var (
		ctx      context.Context
		storer   *transcript.MemoryStorer
		recorder *transcript.Recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		storer = transcript.NewMemoryStorer()
		recorder = transcript.NewRecorder(storer, zap.NewNop())
	})

	It("archives the window and the reply as a chain", func() {
		head, err := recorder.Record(ctx, llm.Turn{
			SessionID: "s1",
			Model:     "m",
			Messages:  []llm.Message{llm.System("sys"), llm.User("Hi")},
			Reply:     llm.Assistant("Hello!"),
		})
		Expect(err).NotTo(HaveOccurred())

		path, err := storer.Ancestry(ctx, head)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(HaveLen(3))
		Expect(path[0].Record).To(Equal(transcript.Record{Role: llm.RoleAssistant, Content: "Hello!", Model: "m"}))
		Expect(path[2].Record.Role).To(Equal(llm.RoleSystem))
	})

	It("deduplicates the shared prefix of consecutive turns", func() {
		first := llm.Turn{
			Model:    "m",
			Messages: []llm.Message{llm.System("sys"), llm.User("Hi")},
			Reply:    llm.Assistant("Hello!"),
		}
		second := llm.Turn{
			Model:    "m",
			Messages: append(append([]llm.Message(nil), first.Messages...), first.Reply, llm.User("Bye")),
			Reply:    llm.Assistant("See you"),
		}

		Expect(recorder.Hook(ctx, first)).To(Succeed())
		Expect(recorder.Hook(ctx, second)).To(Succeed())

		nodes, err := storer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(5))

		leaves, err := storer.Leaves(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(leaves).To(HaveLen(1))
	})
})
