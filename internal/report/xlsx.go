package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

const (
	sheetBusinesses = "Businesses"
	sheetContacts   = "Contacts"
)

// writeXLSX writes campaign.xlsx with a Businesses and a Contacts sheet.
func writeXLSX(path string, rep *campaignReport) error {
	f := xlsx.NewFile()

	biz, err := f.AddSheet(sheetBusinesses)
	if err != nil {
		return eris.Wrap(err, "report: add businesses sheet")
	}
	addStringRow(biz, summaryHeader)
	for _, b := range rep.businesses {
		row := biz.AddRow()
		for _, s := range []string{b.ID, b.Name, b.Source, b.Address, b.Phone, b.Website} {
			row.AddCell().SetString(s)
		}
		row.AddCell().SetFloat(b.DiscoveryConfidence)
		row.AddCell().SetFloat(b.QualityScore)
		row.AddCell().SetFloat(b.ExtractionScore)
		row.AddCell().SetInt(b.Contacts)
		row.AddCell().SetInt(b.DecisionMakers)
		for _, s := range []string{b.TopContact, b.TopContactTitle, b.TopContactEmail} {
			row.AddCell().SetString(s)
		}
	}

	contacts, err := f.AddSheet(sheetContacts)
	if err != nil {
		return eris.Wrap(err, "report: add contacts sheet")
	}
	addStringRow(contacts, contactHeader)
	for _, c := range rep.contacts {
		row := contacts.AddRow()
		for _, s := range []string{
			c.EntityID, c.Business, c.Contact.Name, c.Contact.Title, c.Contact.Email,
			c.Contact.Phone, c.Contact.LinkedInURL, c.Contact.Source,
		} {
			row.AddCell().SetString(s)
		}
		row.AddCell().SetFloat(c.Contact.Confidence)
		row.AddCell().SetFloat(c.Contact.DecisionMakerScore)
		row.AddCell().SetBool(c.IsDM)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
