package links

import (
	"fmt"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/resolver"
)

// FieldServices is the field reported for missing mandatory services.
const FieldServices = "services"

// checkMandatoryServices requires every priced route in a zone with
// mandatory services to be served by each of them. A missing or inactive
// service is ineligible.
func (c *Checker) checkMandatoryServices(actual map[dataset.Triple]bool) {
	settings := c.m.Manifest.GlobalSettings()
	if len(settings.MandatoryServices) == 0 {
		return
	}
	if !c.require(dataset.KindServices, dataset.KindPrices) {
		return
	}

	type key struct{ product, zone, service string }
	seen := make(map[key]bool)

	for _, t := range sortedTriples(actual) {
		for _, serviceID := range settings.MandatoryServices[t.ZoneID] {
			k := key{product: t.ProductID, zone: t.ZoneID, service: serviceID}
			if seen[k] {
				continue
			}
			seen[k] = true

			var problem string
			service, ok := c.ds.Services.Get(serviceID)
			switch {
			case !ok:
				problem = "does not exist"
			case !service.IsActive():
				problem = "is inactive"
			case !service.AppliesTo(t.ProductID):
				problem = fmt.Sprintf("does not list product %s", t.ProductID)
			default:
				continue
			}

			c.findings.Add(findings.Finding{
				Kind:       findings.KindMissingService,
				Severity:   findings.SeverityError,
				File:       c.m.File(dataset.KindServices),
				ID:         t.ProductID + "/" + t.ZoneID,
				Field:      FieldServices,
				TargetFile: c.m.ManifestFile(),
				Target:     serviceID,
				Message:    fmt.Sprintf("service %s is mandatory in zone %s but %s", serviceID, t.ZoneID, problem),
			})
		}
	}
}

// checkAvailableServices requires every available service to be active.
// Services that do not exist are dangling references.
func (c *Checker) checkAvailableServices() {
	settings := c.m.Manifest.GlobalSettings()
	if len(settings.AvailableServices) == 0 || !c.require(dataset.KindServices) {
		return
	}

	for _, serviceID := range settings.AvailableServices {
		service, ok := c.ds.Services.Get(serviceID)
		if !ok || service.IsActive() {
			continue
		}
		c.findings.Add(findings.Finding{
			Kind:       findings.KindInactiveService,
			Severity:   findings.SeverityError,
			File:       c.m.ManifestFile(),
			ID:         serviceID,
			Field:      resolver.FieldAvailableServices,
			TargetFile: c.m.File(dataset.KindServices),
			Expected:   "active",
			Found:      "inactive",
			Message:    fmt.Sprintf("service %s is listed as available but is inactive", serviceID),
		})
	}

	if !c.ds.Available(dataset.KindPrices) {
		return
	}
	priced := make(map[string]bool)
	for _, sp := range c.ds.ServicePrices {
		priced[sp.ServiceID] = true
	}
	for _, serviceID := range settings.AvailableServices {
		if priced[serviceID] || !c.ds.Services.Has(serviceID) {
			continue
		}
		c.findings.Add(findings.Finding{
			Kind:       findings.KindUnpricedService,
			Severity:   findings.SeverityNotice,
			File:       c.m.File(dataset.KindPrices),
			ID:         serviceID,
			Field:      resolver.FieldServiceID,
			Message:    fmt.Sprintf("service %s is listed as available but has no service price", serviceID),
		})
	}
}

// checkServiceLifecycle requires a service whose price list is
// discontinued to carry the same effective_to date.
func (c *Checker) checkServiceLifecycle() {
	if !c.require(dataset.KindServices, dataset.KindPrices) {
		return
	}

	for _, sp := range c.ds.ServicePrices {
		var priceEnd dataset.Date
		for _, item := range sp.Prices {
			if !item.EffectiveTo.IsZero() {
				priceEnd = item.EffectiveTo
				break
			}
		}
		if priceEnd.IsZero() {
			continue
		}

		service, ok := c.ds.Services.Get(sp.ServiceID)
		if !ok {
			continue
		}

		var message string
		switch {
		case service.EffectiveTo.IsZero():
			message = fmt.Sprintf("service %s has prices ending %s but is not marked as discontinued", sp.ServiceID, priceEnd)
		case !service.EffectiveTo.Equal(priceEnd):
			message = fmt.Sprintf("service %s ends %s but its prices end %s; the dates must match", sp.ServiceID, service.EffectiveTo, priceEnd)
		default:
			continue
		}

		c.findings.Add(findings.Finding{
			Kind:       findings.KindServiceLifecycle,
			Severity:   findings.SeverityError,
			File:       c.m.File(dataset.KindServices),
			ID:         sp.ServiceID,
			Field:      "effective_to",
			TargetFile: c.m.File(dataset.KindPrices),
			Expected:   priceEnd.String(),
			Found:      service.EffectiveTo.String(),
			Message:    message,
		})
	}
}
