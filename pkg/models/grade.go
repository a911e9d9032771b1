package models

import "time"

// Link is one monitored link in the entity hierarchy.
type Link struct {
	LinkID    int64  `json:"linkid"`
	SiteID    int64  `json:"siteid"`
	NetworkID int64  `json:"networkid"`
	Name      string `json:"linkname"`
	Type      string `json:"linktype"`
}

// Site is a physical site; Type distinguishes hub antennas from remotes.
type Site struct {
	SiteID  int64  `json:"siteid"`
	Name    string `json:"sitename"`
	Type    string `json:"sitetype"`
	Country string `json:"sitecountry"`
	City    string `json:"sitecity"`
}

// LinkGrade is one time-stamped performance grade record for a link.
// Grade runs 1-10 (10 best); degradation and instability fields are
// fractions in [0,1] per direction (IB inbound, OB outbound).
type LinkGrade struct {
	LinkID        int64     `json:"link_id"`
	Timestamp     time.Time `json:"timestamp"`
	Grade         float64   `json:"grade"`
	Availability  float64   `json:"availability"`
	IBDegradation float64   `json:"ib_degradation"`
	OBDegradation float64   `json:"ob_degradation"`
	IBInstability float64   `json:"ib_instability"`
	OBInstability float64   `json:"ob_instability"`
	Congestion    float64   `json:"congestion"`
	Latency       float64   `json:"latency"`
}
