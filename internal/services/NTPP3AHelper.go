package services

import (
	"net/url"
	"ntpbg/internal/models"
	"ntpbg/internal/p3a"
	"ntpbg/internal/providers"
	"ntpbg/internal/structures"
	"sort"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cast"
)

const (
	CreativeViewEvent = "views"
	CreativeLandEvent = "lands"

	creativeTotalCountMetric = p3a.CreativeMetricPrefix + "total.count"
)

var creativeCountBuckets = []int{0, 1, 2, 3, 8, 12, 16}

// CreativeMetricKey identifies a per-creative metric slot. The metric name is
// derived from it, never parsed back for slots this helper created.
type CreativeMetricKey struct {
	CreativeInstanceID string
	EventType          string
}

func (k CreativeMetricKey) MetricName() string {
	return p3a.CreativeMetricPrefix + k.CreativeInstanceID + "." + k.EventType
}

// parseCreativeMetricName decomposes <prefix><creative>.<event>. Names that do
// not split into exactly three parts are not creative metrics.
func parseCreativeMetricName(name string) (CreativeMetricKey, bool) {
	if !strings.HasPrefix(name, p3a.CreativeMetricPrefix) {
		return CreativeMetricKey{}, false
	}
	parts := strings.Split(name, ".")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return CreativeMetricKey{}, false
	}
	return CreativeMetricKey{CreativeInstanceID: parts[1], EventType: parts[2]}, true
}

type creativeSlot struct {
	key      CreativeMetricKey
	count    int
	inflight int
}

type NTPP3AHelperInterface interface {
	BackgroundImagesServiceObserver
	RecordView(creativeInstanceID, campaignID string)
	OnLandingStartCheck(creativeInstanceID, expectedHostname string)
	OnLandingEndCheck(creativeInstanceID, expectedHostname string)
	SetLastTabURL(rawURL string)
	OnP3ARotation(logType p3a.MetricLogType, isConstellation bool)
	OnP3AMetricCycled(name string, isConstellation bool)
	CheckLoadedCampaigns()
	RecordNewTabsCreated(total, sponsored uint64)
	RecordSponsoredImagesEnabled(enabled bool)
	ResumePersistedSlots()
	Shutdown()
}

// NTPP3AHelper turns creative engagement into bucketed express metrics. Raw
// counts live in a local state dict pref so they survive restarts; only
// bucket indices are handed to the P3A service.
type NTPP3AHelper struct {
	mu     sync.Mutex
	conf   *structures.Config
	logger providers.Logger
	clock  clock.Clock
	prefs  *models.PrefStore
	p3a    p3a.ServiceInterface
	loader BackgroundImagesServiceInterface

	lastTabHostname string
	loadedCreatives map[string]struct{}

	nextTimerID   int
	landingTimers map[int]*clock.Timer
	unsubscribe   []func()
}

func NewNTPP3AHelper(conf *structures.Config, logger providers.Logger, clk clock.Clock, prefs *models.PrefStore, p3aService p3a.ServiceInterface, loader BackgroundImagesServiceInterface) NTPP3AHelperInterface {
	h := &NTPP3AHelper{
		conf:            conf,
		logger:          logger,
		clock:           clk,
		prefs:           prefs,
		p3a:             p3aService,
		loader:          loader,
		loadedCreatives: make(map[string]struct{}),
		landingTimers:   make(map[int]*clock.Timer),
	}
	h.unsubscribe = append(h.unsubscribe,
		p3aService.RegisterMetricCycledCallback(h.OnP3AMetricCycled),
		p3aService.RegisterRotationCallback(h.OnP3ARotation),
	)
	h.ResumePersistedSlots()
	if loader != nil {
		h.CheckLoadedCampaigns()
		loader.AddObserver(h)
	}
	return h
}

func (h *NTPP3AHelper) loadSlots() map[CreativeMetricKey]*creativeSlot {
	slots := make(map[CreativeMetricKey]*creativeSlot)
	for name, raw := range h.prefs.GetDict(models.PrefCreativeMetrics) {
		entry := cast.ToStringMap(raw)
		key := CreativeMetricKey{
			CreativeInstanceID: cast.ToString(entry["creativeInstanceId"]),
			EventType:          cast.ToString(entry["eventType"]),
		}
		if key.CreativeInstanceID == "" || key.EventType == "" {
			h.logger.Warnf(providers.TypeP3A, "Dropping malformed creative slot %s", name)
			continue
		}
		slots[key] = &creativeSlot{
			key:      key,
			count:    cast.ToInt(entry["count"]),
			inflight: cast.ToInt(entry["inflight"]),
		}
	}
	return slots
}

// ResumePersistedSlots registers the express metric of every slot restored
// from prefs. Inflight answers were queued in memory only and died with the
// previous process, so their counts are pending again.
func (h *NTPP3AHelper) ResumePersistedSlots() {
	h.mu.Lock()
	defer h.mu.Unlock()

	slots := h.loadSlots()
	requeued := false
	for _, key := range sortedSlotKeys(slots) {
		slot := slots[key]
		if slot.inflight > 0 {
			slot.count += slot.inflight
			slot.inflight = 0
			requeued = true
		}
		h.p3a.RegisterDynamicMetric(key.MetricName(), p3a.MetricLogTypeExpress)
	}
	if requeued {
		h.saveSlots(slots)
	}
	if len(slots) > 0 {
		h.logger.Debugf(providers.TypeP3A, "Resumed %d persisted creative slots", len(slots))
	}
}

func (h *NTPP3AHelper) saveSlots(slots map[CreativeMetricKey]*creativeSlot) {
	dict := make(map[string]any, len(slots))
	for key, slot := range slots {
		dict[key.MetricName()] = map[string]any{
			"creativeInstanceId": key.CreativeInstanceID,
			"eventType":          key.EventType,
			"count":              slot.count,
			"inflight":           slot.inflight,
		}
	}
	h.prefs.SetDict(models.PrefCreativeMetrics, dict)
}

func (h *NTPP3AHelper) RecordView(creativeInstanceID, campaignID string) {
	if !h.p3a.IsP3AEnabled() {
		return
	}
	h.logger.Debugf(providers.TypeP3A, "View of creative %s (campaign %s)", creativeInstanceID, campaignID)
	h.updateMetricCount(CreativeMetricKey{CreativeInstanceID: creativeInstanceID, EventType: CreativeViewEvent})
}

func (h *NTPP3AHelper) updateMetricCount(key CreativeMetricKey) {
	if key.CreativeInstanceID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	slots := h.loadSlots()
	slot, ok := slots[key]
	if !ok {
		slot = &creativeSlot{key: key}
		slots[key] = slot
	}
	slot.count++
	h.saveSlots(slots)
	h.p3a.RegisterDynamicMetric(key.MetricName(), p3a.MetricLogTypeExpress)
}

func (h *NTPP3AHelper) SetLastTabURL(rawURL string) {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Hostname()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastTabHostname = host
}

// OnLandingStartCheck schedules the landing check for when the page had time
// to settle. The hostname to expect is fixed now.
func (h *NTPP3AHelper) OnLandingStartCheck(creativeInstanceID, expectedHostname string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastTabHostname == "" || h.landingTimers == nil {
		return
	}

	h.nextTimerID++
	id := h.nextTimerID
	h.landingTimers[id] = h.clock.AfterFunc(h.conf.Rotation.LandingCheckDelay, func() {
		h.mu.Lock()
		_, pending := h.landingTimers[id]
		delete(h.landingTimers, id)
		h.mu.Unlock()
		if pending {
			h.OnLandingEndCheck(creativeInstanceID, expectedHostname)
		}
	})
}

// OnLandingEndCheck counts a landing only if the active tab is still on the
// expected host.
func (h *NTPP3AHelper) OnLandingEndCheck(creativeInstanceID, expectedHostname string) {
	h.mu.Lock()
	landed := h.lastTabHostname != "" && h.lastTabHostname == expectedHostname
	h.mu.Unlock()

	if !landed || !h.p3a.IsP3AEnabled() {
		return
	}
	h.updateMetricCount(CreativeMetricKey{CreativeInstanceID: creativeInstanceID, EventType: CreativeLandEvent})
}

func (h *NTPP3AHelper) recordCreativeMetric(name string, count int, isConstellation bool) {
	h.p3a.UpdateMetricValue(name, p3a.Bucket(creativeCountBuckets, count), isConstellation)
}

// OnP3ARotation sends the buckets of the express period that just ended.
func (h *NTPP3AHelper) OnP3ARotation(logType p3a.MetricLogType, isConstellation bool) {
	if logType != p3a.MetricLogTypeExpress {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	slots := h.loadSlots()
	if h.p3a.IsP3AEnabled() {
		active := make(map[string]struct{})
		for _, key := range sortedSlotKeys(slots) {
			slot := slots[key]
			if slot.count == 0 {
				continue
			}
			h.recordCreativeMetric(key.MetricName(), slot.count, isConstellation)
			slot.inflight = slot.count
			slot.count = 0
			active[key.CreativeInstanceID] = struct{}{}
		}
		if len(active) > 0 {
			h.p3a.RegisterDynamicMetric(creativeTotalCountMetric, p3a.MetricLogTypeExpress)
			h.recordCreativeMetric(creativeTotalCountMetric, len(active), isConstellation)
		}
	}

	h.cleanOldCreativesLocked(slots)
	h.saveSlots(slots)
}

// OnP3AMetricCycled settles an answer that was sent and drops the slot once
// its creative is gone and nothing is left to report.
func (h *NTPP3AHelper) OnP3AMetricCycled(name string, isConstellation bool) {
	if name == creativeTotalCountMetric {
		h.p3a.RemoveDynamicMetric(name)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	slots := h.loadSlots()
	var key CreativeMetricKey
	found := false
	for k := range slots {
		if k.MetricName() == name {
			key, found = k, true
			break
		}
	}
	if !found {
		parsed, ok := parseCreativeMetricName(name)
		if !ok {
			return
		}
		key = parsed
	}

	slot, ok := slots[key]
	if ok {
		slot.inflight = 0
	}
	if _, loaded := h.loadedCreatives[key.CreativeInstanceID]; loaded {
		if ok {
			h.saveSlots(slots)
		}
		return
	}
	if ok && slot.count > 0 {
		h.saveSlots(slots)
		return
	}
	delete(slots, key)
	h.saveSlots(slots)
	h.p3a.RemoveDynamicMetric(name)
}

func (h *NTPP3AHelper) cleanOldCreativesLocked(slots map[CreativeMetricKey]*creativeSlot) {
	for key, slot := range slots {
		if _, loaded := h.loadedCreatives[key.CreativeInstanceID]; loaded {
			continue
		}
		if slot.count > 0 || slot.inflight > 0 {
			continue
		}
		delete(slots, key)
		h.p3a.RemoveDynamicMetric(key.MetricName())
	}
}

// CheckLoadedCampaigns refreshes the set of creatives present in the loaded
// sponsored and super referral data and drops settled slots of the others.
func (h *NTPP3AHelper) CheckLoadedCampaigns() {
	loaded := make(map[string]struct{})
	for _, superReferral := range []bool{false, true} {
		if h.loader == nil {
			break
		}
		for id := range h.loader.GetBrandedImagesData(superReferral).CreativeInstanceIDs() {
			loaded[id] = struct{}{}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.loadedCreatives = loaded
	if !h.p3a.IsP3AEnabled() {
		return
	}
	slots := h.loadSlots()
	before := len(slots)
	h.cleanOldCreativesLocked(slots)
	if len(slots) != before {
		h.saveSlots(slots)
	}
}

func (h *NTPP3AHelper) RecordNewTabsCreated(total, sponsored uint64) {
	h.p3a.UpdateMetricValue(p3a.NewTabsCreatedMetric, p3a.Bucket(p3a.NewTabsCreatedBuckets, int(total)), false)

	ratio := 0
	if total > 0 && sponsored > 0 {
		ratio = int(float64(sponsored) / float64(total) * 100)
	}
	h.p3a.UpdateMetricValue(p3a.SponsoredNewTabsCreatedMetric, p3a.Bucket(p3a.SponsoredNewTabsBuckets, ratio), false)
}

func (h *NTPP3AHelper) RecordSponsoredImagesEnabled(enabled bool) {
	answer := 0
	if enabled {
		answer = 1
	}
	h.p3a.UpdateMetricValue(p3a.SponsoredImagesEnabledMetric, answer, false)
}

func (h *NTPP3AHelper) OnUpdatedSponsoredImages(_ *models.SponsoredImagesData) {
	h.CheckLoadedCampaigns()
}

func (h *NTPP3AHelper) OnUpdatedBackgroundImages(_ *models.BackgroundImagesData) {}

func (h *NTPP3AHelper) OnSuperReferralEnded() {
	h.CheckLoadedCampaigns()
}

func (h *NTPP3AHelper) Shutdown() {
	if h.loader != nil {
		h.loader.RemoveObserver(h)
	}

	h.mu.Lock()
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	for _, timer := range h.landingTimers {
		timer.Stop()
	}
	h.landingTimers = nil
	h.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
}

func sortedSlotKeys(slots map[CreativeMetricKey]*creativeSlot) []CreativeMetricKey {
	keys := make([]CreativeMetricKey, 0, len(slots))
	for key := range slots {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].MetricName() < keys[j].MetricName()
	})
	return keys
}
