package transcript_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cortex/pkg/llm"
	"github.com/papercomputeco/cortex/pkg/transcript"
)

func rec(role llm.Role, content string) transcript.Record {
	return transcript.Record{Role: role, Content: content}
}

var _ = Describe("Node", func() {
	Context("when creating a root node", func() {
		It("has no parent", func() {
			node := transcript.NewNode(rec(llm.RoleSystem, "sys"), nil)
			Expect(node.ParentHash).To(BeNil())
		})

		It("produces consistent hashes for the same record", func() {
			a := transcript.NewNode(rec(llm.RoleUser, "Hi"), nil)
			b := transcript.NewNode(rec(llm.RoleUser, "Hi"), nil)
			Expect(a.Hash).To(Equal(b.Hash))
		})

		It("includes the role in the hash", func() {
			a := transcript.NewNode(rec(llm.RoleUser, "Hi"), nil)
			b := transcript.NewNode(rec(llm.RoleAssistant, "Hi"), nil)
			Expect(a.Hash).NotTo(Equal(b.Hash))
		})

		It("is a SHA-256 hex string", func() {
			node := transcript.NewNode(rec(llm.RoleUser, "x"), nil)
			Expect(node.Hash).To(MatchRegexp("^[a-f0-9]{64}$"))
		})
	})

	Context("when chaining", func() {
		It("links the child to its parent", func() {
			parent := transcript.NewNode(rec(llm.RoleUser, "Hi"), nil)
			child := transcript.NewNode(rec(llm.RoleAssistant, "Hello"), parent)

			Expect(child.ParentHash).NotTo(BeNil())
			Expect(*child.ParentHash).To(Equal(parent.Hash))
		})

		It("gives the same record different hashes under different parents", func() {
			p1 := transcript.NewNode(rec(llm.RoleUser, "one"), nil)
			p2 := transcript.NewNode(rec(llm.RoleUser, "two"), nil)

			Expect(transcript.NewNode(rec(llm.RoleAssistant, "ok"), p1).Hash).
				NotTo(Equal(transcript.NewNode(rec(llm.RoleAssistant, "ok"), p2).Hash))
		})
	})
})

var _ = Describe("Node verification", func() {
	It("accepts untouched nodes", func() {
		parent := transcript.NewNode(rec(llm.RoleUser, "Hi"), nil)
		child := transcript.NewNode(rec(llm.RoleAssistant, "Hello"), parent)
		Expect(parent.Verify()).To(BeTrue())
		Expect(child.Verify()).To(BeTrue())
	})

	It("rejects nodes whose content was altered", func() {
		node := transcript.NewNode(rec(llm.RoleUser, "Hi"), nil)
		node.Record.Content = "Bye"
		Expect(node.Verify()).To(BeFalse())
	})
})
