package cloud_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pharmer/cloudcli/cloud"
	"github.com/pharmer/cloudcli/cloud/providers/fake"
)

var _ = Describe("Waiting for running resources", func() {
	var (
		ctx      context.Context
		provider *fake.Provider
		opts     cloud.WaitOptions
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = fake.NewProvider()
		opts = cloud.WaitOptions{Interval: 10 * time.Millisecond, Timeout: 200 * time.Millisecond}
	})

	Context("a node", func() {
		It("returns at once when the node is already running", func() {
			_, err := provider.CreateNode(ctx, cloud.NodeRequest{Name: "web"})
			Expect(err).NotTo(HaveOccurred())

			node, err := cloud.WaitForRunningNode(ctx, provider, "web", opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(node.State).To(Equal(cloud.NodeStateRunning))
			Expect(provider.Calls("ListNodes")).To(Equal(1))
		})

		It("polls until the node converges", func() {
			provider.PollsUntilRunning = 3
			_, err := provider.CreateNode(ctx, cloud.NodeRequest{Name: "web"})
			Expect(err).NotTo(HaveOccurred())

			start := time.Now()
			node, err := cloud.WaitForRunningNode(ctx, provider, "web", opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(node).NotTo(BeNil())
			Expect(node.State).To(Equal(cloud.NodeStateRunning))
			Expect(provider.Calls("ListNodes")).To(Equal(3))
			Expect(time.Since(start)).To(BeNumerically("<", opts.Timeout))
		})

		It("returns the last observation on timeout", func() {
			provider.PollsUntilRunning = 1000
			_, err := provider.CreateNode(ctx, cloud.NodeRequest{Name: "web"})
			Expect(err).NotTo(HaveOccurred())

			start := time.Now()
			node, err := cloud.WaitForRunningNode(ctx, provider, "web", opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(node).NotTo(BeNil())
			Expect(node.State).To(Equal(cloud.NodeStatePending))
			Expect(time.Since(start)).To(BeNumerically(">=", opts.Timeout/2))
			Expect(provider.Calls("ListNodes")).To(BeNumerically(">", 1))
		})

		It("returns nothing when the node never appears", func() {
			node, err := cloud.WaitForRunningNode(ctx, provider, "ghost", opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(node).To(BeNil())
		})

		It("aborts when listing fails", func() {
			provider.Err = errors.New("connection refused")

			node, err := cloud.WaitForRunningNode(ctx, provider, "web", opts)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("connection refused"))
			Expect(node).To(BeNil())
			Expect(provider.Calls("ListNodes")).To(Equal(1))
		})
	})

	Context("a balancer", func() {
		It("polls until the balancer converges", func() {
			provider.PollsUntilRunning = 2
			_, err := provider.CreateBalancer(ctx, cloud.BalancerRequest{Name: "lb1", Port: 80})
			Expect(err).NotTo(HaveOccurred())

			lb, err := cloud.WaitForRunningBalancer(ctx, provider, "lb1", opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(lb.State).To(Equal(cloud.BalancerStateRunning))
			Expect(provider.Calls("ListBalancers")).To(Equal(2))
		})

		It("returns nothing when the balancer never appears", func() {
			lb, err := cloud.WaitForRunningBalancer(ctx, provider, "lb1", opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(lb).To(BeNil())
		})
	})

	It("falls back to the default bounds", func() {
		opts := cloud.WaitOptions{}
		_, err := provider.CreateNode(ctx, cloud.NodeRequest{Name: "web"})
		Expect(err).NotTo(HaveOccurred())

		node, err := cloud.WaitForRunningNode(ctx, provider, "web", opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(node).NotTo(BeNil())
	})
})
