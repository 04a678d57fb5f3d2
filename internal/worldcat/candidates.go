// Package worldcat searches the WorldCat Metadata API for brief bibs and picks
// the best OCLC number for a record from the candidates it returns.
package worldcat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Candidate is one brief bibliographic record returned by a search.
type Candidate struct {
	Identifier string
	Agency     string
	Language   string
	Level      string
}

// CandidateSet is a decoded brief-bibs search response.
type CandidateSet struct {
	RecordCount int
	Candidates  []Candidate
}

// MalformedResponseError reports a search response missing keys the
// disambiguator depends on.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed brief-bibs response: " + e.Reason
}

type briefBibsResponse struct {
	NumberOfRecords *int            `json:"numberOfRecords"`
	BriefRecords    []briefRecordIn `json:"briefRecords"`
}

type briefRecordIn struct {
	OCLCNumber     *string `json:"oclcNumber"`
	CatalogingInfo *struct {
		CatalogingAgency   *string `json:"catalogingAgency"`
		CatalogingLanguage *string `json:"catalogingLanguage"`
		LevelOfCataloging  *string `json:"levelOfCataloging"`
	} `json:"catalogingInfo"`
}

// DecodeCandidateSet strictly decodes a brief-bibs response body.
// numberOfRecords is always required; when it is positive briefRecords must be
// present and every record must carry an OCLC number and all three cataloging
// fields.
func DecodeCandidateSet(body []byte) (CandidateSet, error) {
	var resp briefBibsResponse
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&resp); err != nil {
		return CandidateSet{}, &MalformedResponseError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if resp.NumberOfRecords == nil {
		return CandidateSet{}, &MalformedResponseError{Reason: "missing numberOfRecords"}
	}
	n := *resp.NumberOfRecords
	if n < 0 {
		return CandidateSet{}, &MalformedResponseError{Reason: fmt.Sprintf("negative numberOfRecords %d", n)}
	}
	if n > 0 && len(resp.BriefRecords) == 0 {
		return CandidateSet{}, &MalformedResponseError{Reason: fmt.Sprintf("numberOfRecords is %d but briefRecords is empty", n)}
	}

	set := CandidateSet{RecordCount: n, Candidates: make([]Candidate, 0, len(resp.BriefRecords))}
	for i, br := range resp.BriefRecords {
		switch {
		case br.OCLCNumber == nil:
			return CandidateSet{}, &MalformedResponseError{Reason: fmt.Sprintf("briefRecords[%d] missing oclcNumber", i)}
		case br.CatalogingInfo == nil:
			return CandidateSet{}, &MalformedResponseError{Reason: fmt.Sprintf("briefRecords[%d] missing catalogingInfo", i)}
		case br.CatalogingInfo.CatalogingAgency == nil:
			return CandidateSet{}, &MalformedResponseError{Reason: fmt.Sprintf("briefRecords[%d] missing catalogingAgency", i)}
		case br.CatalogingInfo.CatalogingLanguage == nil:
			return CandidateSet{}, &MalformedResponseError{Reason: fmt.Sprintf("briefRecords[%d] missing catalogingLanguage", i)}
		case br.CatalogingInfo.LevelOfCataloging == nil:
			return CandidateSet{}, &MalformedResponseError{Reason: fmt.Sprintf("briefRecords[%d] missing levelOfCataloging", i)}
		}
		set.Candidates = append(set.Candidates, Candidate{
			Identifier: *br.OCLCNumber,
			Agency:     *br.CatalogingInfo.CatalogingAgency,
			Language:   *br.CatalogingInfo.CatalogingLanguage,
			Level:      *br.CatalogingInfo.LevelOfCataloging,
		})
	}
	return set, nil
}
