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

// recorder is a Display that keeps every frame.
type recorder struct {
	frames []chat.Frame
	failAt int
}

func (r *recorder) Render(f chat.Frame) error {
	r.frames = append(r.frames, f)
	if r.failAt > 0 && len(r.frames) == r.failAt {
		return errors.New("client went away")
	}
	return nil
}

func (r *recorder) displays() []string {
	out := make([]string, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.Display()
	}
	return out
}

var _ = Describe("Renderer", func() {
	var (
		ctx context.Context
		req provider.Request
		rec *recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		req = provider.Request{Model: "test", Messages: []llm.Message{llm.System("sys"), llm.User("Hi")}}
		rec = &recorder{}
	})

	It("redraws after every chunk with a cursor and once more without it", func() {
		r := chat.NewRenderer(providertest.New("Hel", "lo", "!"), zap.NewNop())

		msg, err := r.Render(ctx, req, rec)
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(Equal(llm.Assistant("Hello!")))
		Expect(rec.displays()).To(Equal([]string{"Hel▌", "Hello▌", "Hello!▌", "Hello!"}))
		Expect(rec.frames[len(rec.frames)-1].Final).To(BeTrue())
	})

	It("skips empty chunks without ending the stream", func() {
		r := chat.NewRenderer(providertest.New("", "a", "", "", "b", ""), zap.NewNop())

		msg, err := r.Render(ctx, req, rec)
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Content).To(Equal("ab"))
		Expect(rec.frames).To(HaveLen(3))
	})

	It("produces a single final redraw for an empty response", func() {
		r := chat.NewRenderer(providertest.New(), zap.NewNop())

		msg, err := r.Render(ctx, req, rec)
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Content).To(BeEmpty())
		Expect(rec.frames).To(Equal([]chat.Frame{{Text: "", Final: true}}))
	})

	It("returns a StreamError and no final frame when the provider fails", func() {
		boom := errors.New("connection reset")
		r := chat.NewRenderer(providertest.Failing(2, boom, "a", "b", "c"), zap.NewNop())

		_, err := r.Render(ctx, req, rec)
		Expect(err).To(MatchError(boom))

		var se *chat.StreamError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.Partial).To(Equal(2))
		Expect(rec.frames).To(HaveLen(2))
		for _, f := range rec.frames {
			Expect(f.Final).To(BeFalse())
		}
	})

	It("aborts when the display fails", func() {
		r := chat.NewRenderer(providertest.New("a", "b", "c"), zap.NewNop())
		rec.failAt = 2

		_, err := r.Render(ctx, req, rec)
		Expect(err).To(MatchError(ContainSubstring("client went away")))
		Expect(rec.frames).To(HaveLen(2))
	})
})
