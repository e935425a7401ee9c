package services

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

// ValidateConsentBinding checks a submitted payment instruction against the
// consent it claims to fulfil. The consent is the sole source of truth for
// what was authorized; any deviation is rejected, never corrected.
//
// The status gate runs first: no field comparison is meaningful against a
// consent that is not currently Authorised. Then the initiation documents
// must be deeply equal, and for payment types that carry risk data the risk
// documents must be deeply equal too.
func ValidateConsentBinding(payment models.PaymentRequest, consent *models.Consent) error {
	if consent.Status != models.ConsentStatusAuthorised {
		return &utils.ConsentNotAuthorisedError{
			ConsentID: consent.ID,
			Status:    string(consent.Status),
		}
	}

	if diffs := diffDocuments("", consent.Initiation, payment.Initiation); len(diffs) > 0 {
		return &utils.InitiationMismatchError{ConsentID: consent.ID, Diffs: diffs}
	}

	if payment.PaymentType.HasRisk() {
		if !consent.Risk.Equal(payment.Risk) {
			return &utils.RiskMismatchError{ConsentID: consent.ID}
		}
	}

	return nil
}

// diffDocuments walks expected and actual in parallel and collects every
// diverging field path. Values are compared structurally after JSON decoding,
// so numbers are float64 and objects are maps on both sides.
func diffDocuments(path string, expected, actual interface{}) []utils.FieldDiff {
	if em, ok := expected.(models.JSON); ok {
		expected = map[string]interface{}(em)
	}
	if am, ok := actual.(models.JSON); ok {
		actual = map[string]interface{}(am)
	}

	switch ev := expected.(type) {
	case map[string]interface{}:
		av, ok := actual.(map[string]interface{})
		if !ok {
			return []utils.FieldDiff{{Path: rootPath(path), Expected: expected, Actual: actual}}
		}
		return diffMaps(path, ev, av)
	case []interface{}:
		av, ok := actual.([]interface{})
		if !ok || len(ev) != len(av) {
			return []utils.FieldDiff{{Path: rootPath(path), Expected: expected, Actual: actual}}
		}
		var diffs []utils.FieldDiff
		for i := range ev {
			diffs = append(diffs, diffDocuments(fmt.Sprintf("%s[%d]", path, i), ev[i], av[i])...)
		}
		return diffs
	default:
		if !reflect.DeepEqual(expected, actual) {
			return []utils.FieldDiff{{Path: rootPath(path), Expected: expected, Actual: actual}}
		}
		return nil
	}
}

func diffMaps(path string, expected, actual map[string]interface{}) []utils.FieldDiff {
	keys := make(map[string]struct{}, len(expected))
	for k := range expected {
		keys[k] = struct{}{}
	}
	for k := range actual {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var diffs []utils.FieldDiff
	for _, k := range sorted {
		childPath := k
		if path != "" {
			childPath = path + "." + k
		}
		ev, inExpected := expected[k]
		av, inActual := actual[k]
		switch {
		case !inExpected:
			diffs = append(diffs, utils.FieldDiff{Path: childPath, Actual: av})
		case !inActual:
			diffs = append(diffs, utils.FieldDiff{Path: childPath, Expected: ev})
		default:
			diffs = append(diffs, diffDocuments(childPath, ev, av)...)
		}
	}
	return diffs
}

func rootPath(path string) string {
	if path == "" {
		return "."
	}
	return path
}
