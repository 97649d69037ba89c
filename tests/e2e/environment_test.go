package e2e

import (
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/vmware/vcd-system-test-framework/pkg/testenv"
)

var _ = Describe("Test environment provisioning", func() {

	It("provisions the full resource hierarchy", func() {
		By("running every ensure-step against the live VCD")
		Expect(env.Provision()).To(Succeed())

		By("resolving a handle for every resource in the hierarchy")
		Expect(env.PvdcHREF()).NotTo(BeZero())
		Expect(env.OrgHREF()).NotTo(BeZero())
		Expect(env.VdcHREF()).NotTo(BeZero())
		Expect(env.NetworkHREF()).NotTo(BeZero())
		Expect(env.VAppHREF()).NotTo(BeZero())
		for _, role := range testenv.AllRoles() {
			Expect(env.UserHREF(role)).NotTo(BeZero(),
				fmt.Sprintf("user href for role [%s]", role))
		}
	})

	It("is idempotent on an already provisioned system", func() {
		vappHREF := env.VAppHREF()

		Expect(env.Provision()).To(Succeed())

		By("resolving the same vapp instead of creating a new one")
		Expect(env.VAppHREF()).To(Equal(vappHREF))
	})

	It("grants the catalog author a working org session", func() {
		client, err := provider.OrgUserClient(testenv.RoleCatalogAuthor)
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			Expect(client.Logout()).To(Succeed())
		}()

		By("creating and finding a uniquely named scratch catalog")
		scratchCatalog := fmt.Sprintf("e2e-scratch-%s", uuid.New().String())
		_, err = client.CreateCatalog(scratchCatalog)
		Expect(err).NotTo(HaveOccurred())

		records, err := client.ListCatalogs()
		Expect(err).NotTo(HaveOccurred())
		_, err = testenv.FindByName("catalog", records, scratchCatalog)
		Expect(err).NotTo(HaveOccurred())
	})

	It("lists the uploaded template in the shared catalog", func() {
		client, err := provider.OrgUserClient(testenv.RoleVAppAuthor)
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			Expect(client.Logout()).To(Succeed())
		}()

		By("reading the catalog under a role that does not own it")
		records, err := client.ListCatalogItems(env.CatalogName())
		Expect(err).NotTo(HaveOccurred())
		record, err := testenv.FindByName("catalog item", records, env.TemplateName())
		Expect(err).NotTo(HaveOccurred())
		Expect(record.HREF).NotTo(BeZero())
	})
})
