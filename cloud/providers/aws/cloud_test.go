package aws

import (
	"github.com/appscode/go/types"
	"github.com/aws/aws-sdk-go/aws/awserr"
	_ec2 "github.com/aws/aws-sdk-go/service/ec2"
	_elb "github.com/aws/aws-sdk-go/service/elb"
	_route53 "github.com/aws/aws-sdk-go/service/route53"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/pharmer/cloudcli/cloud"

	_aws "github.com/aws/aws-sdk-go/aws"
)

var _ = Describe("Connector", func() {
	It("requires both halves of the key pair", func() {
		_, err := NewConnector(cloud.Credentials{User: "AKIA"})
		Expect(cloud.IsInvalidCredentials(err)).To(BeTrue())

		conn, err := NewConnector(cloud.Credentials{User: "AKIA", Key: "secret"})
		Expect(err).NotTo(HaveOccurred())
		Expect(conn.region).To(Equal(defaultRegion))
	})

	DescribeTable("splits a location into region and zone",
		func(location, region, zone string) {
			r, z := splitLocation(location)
			Expect(r).To(Equal(region))
			Expect(z).To(Equal(zone))
		},
		Entry("empty", "", defaultRegion, ""),
		Entry("region", "eu-west-1", "eu-west-1", ""),
		Entry("zone", "eu-west-1b", "eu-west-1", "eu-west-1b"),
	)

	It("maps authentication failures", func() {
		err := wrap(awserr.New("AuthFailure", "AWS was not able to validate the provided access credentials", nil), "failed to describe instances")
		Expect(cloud.IsInvalidCredentials(err)).To(BeTrue())

		err = wrap(awserr.New("Throttling", "Rate exceeded", nil), "failed to describe instances")
		Expect(cloud.IsInvalidCredentials(err)).To(BeFalse())
		Expect(err.Error()).To(HavePrefix("failed to describe instances: "))
	})
})

var _ = Describe("Route 53 conversion", func() {
	zone := cloud.Zone{ID: "Z123", Domain: "example.com"}

	It("strips the id prefix and the trailing dot", func() {
		z := toZone(&_route53.HostedZone{
			Id:     types.StringP("/hostedzone/Z123"),
			Name:   types.StringP("example.com."),
			Config: &_route53.HostedZoneConfig{Comment: types.StringP("prod"), PrivateZone: _aws.Bool(false)},
		})
		Expect(z.ID).To(Equal("Z123"))
		Expect(z.Domain).To(Equal("example.com"))
		Expect(z.Extra).To(HaveKeyWithValue("comment", "prod"))
		Expect(z.Extra).NotTo(HaveKey("private"))
	})

	It("flattens record sets", func() {
		records := toRecords(zone, &_route53.ResourceRecordSet{
			Name: types.StringP("www.example.com."),
			Type: types.StringP("A"),
			TTL:  _aws.Int64(60),
			ResourceRecords: []*_route53.ResourceRecord{
				{Value: types.StringP("203.0.113.1")},
				{Value: types.StringP("203.0.113.2")},
			},
		})
		Expect(records).To(HaveLen(2))
		Expect(records[0].Name).To(Equal("www"))
		Expect(records[1].Data).To(Equal("203.0.113.2"))
		Expect(records[1].TTL).To(Equal(60))
		Expect(records[1].ZoneDomain).To(Equal("example.com"))
	})

	It("reports alias targets as data", func() {
		records := toRecords(zone, &_route53.ResourceRecordSet{
			Name:        types.StringP("example.com."),
			Type:        types.StringP("A"),
			AliasTarget: &_route53.AliasTarget{DNSName: types.StringP("lb-1.elb.amazonaws.com.")},
		})
		Expect(records).To(HaveLen(1))
		Expect(records[0].Name).To(BeEmpty())
		Expect(records[0].Extra).To(HaveKeyWithValue("alias", "true"))
	})

	DescribeTable("qualifies record names",
		func(name, want string) {
			Expect(fqdn(name, "example.com")).To(Equal(want))
		},
		Entry("apex", "@", "example.com."),
		Entry("empty", "", "example.com."),
		Entry("relative", "www", "www.example.com."),
		Entry("already qualified", "www.example.com", "www.example.com."),
		Entry("absolute", "mail.example.org.", "mail.example.org."),
	)
})

var _ = Describe("EC2 conversion", func() {
	It("reads the name tag and addresses", func() {
		node := toNode(&_ec2.Instance{
			InstanceId:       types.StringP("i-0abc"),
			InstanceType:     types.StringP("t3.micro"),
			ImageId:          types.StringP("ami-123"),
			State:            &_ec2.InstanceState{Name: types.StringP(_ec2.InstanceStateNamePending)},
			PublicIpAddress:  types.StringP("203.0.113.9"),
			PrivateIpAddress: types.StringP("10.0.1.9"),
			Tags:             []*_ec2.Tag{{Key: types.StringP("Name"), Value: types.StringP("web")}},
		})
		Expect(node.ID).To(Equal("i-0abc"))
		Expect(node.Name).To(Equal("web"))
		Expect(node.State).To(Equal(cloud.NodeStatePending))
		Expect(node.PublicIPs).To(Equal([]string{"203.0.113.9"}))
		Expect(node.PrivateIPs).To(Equal([]string{"10.0.1.9"}))
	})

	DescribeTable("maps instance states",
		func(state string, want cloud.NodeState) {
			Expect(toNodeState(state)).To(Equal(want))
		},
		Entry("running", _ec2.InstanceStateNameRunning, cloud.NodeStateRunning),
		Entry("stopping", _ec2.InstanceStateNameStopping, cloud.NodeStateStopped),
		Entry("shutting-down", _ec2.InstanceStateNameShuttingDown, cloud.NodeStateTerminated),
		Entry("unknown", "hibernating", cloud.NodeStateUnknown),
	)

	It("reads memory in megabytes", func() {
		s := toSize(&_ec2.InstanceTypeInfo{
			InstanceType: types.StringP("t3.small"),
			MemoryInfo:   &_ec2.MemoryInfo{SizeInMiB: _aws.Int64(2048)},
		})
		Expect(s.RAM).To(Equal(2048))
		Expect(s.Name).To(Equal("t3.small"))
	})
})

var _ = Describe("ELB conversion", func() {
	It("uses the first listener", func() {
		d := &_elb.LoadBalancerDescription{
			LoadBalancerName: types.StringP("front"),
			DNSName:          types.StringP("front-1.us-east-1.elb.amazonaws.com"),
			ListenerDescriptions: []*_elb.ListenerDescription{
				{Listener: &_elb.Listener{
					Protocol:         types.StringP("HTTP"),
					LoadBalancerPort: _aws.Int64(80),
					InstancePort:     _aws.Int64(8080),
				}},
			},
		}
		lb := toBalancer(d)
		Expect(lb.ID).To(Equal("front"))
		Expect(lb.Port).To(Equal(80))
		Expect(lb.State).To(Equal(cloud.BalancerStateRunning))
		Expect(lb.Extra).To(HaveKeyWithValue("protocol", "http"))
		Expect(instancePort(d)).To(Equal(8080))
	})
})
