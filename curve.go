package leap

import "sort"

// Keyframe is a value at a time in seconds.
type Keyframe struct {
	Time  float64 `yaml:"t" json:"t"`
	Value float64 `yaml:"v" json:"v"`
}

// Curve is a keyframed channel. Keys are kept sorted by time.
type Curve struct {
	Channel string     `yaml:"channel" json:"channel"`
	Keys    []Keyframe `yaml:"keys" json:"keys"`
}

// AddKey inserts a key, replacing any key at the same time.
func (c *Curve) AddKey(k Keyframe) {
	i := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Time >= k.Time })
	if i < len(c.Keys) && c.Keys[i].Time == k.Time {
		c.Keys[i] = k
		return
	}
	c.Keys = append(c.Keys, Keyframe{})
	copy(c.Keys[i+1:], c.Keys[i:])
	c.Keys[i] = k
}

// Sample linearly interpolates the curve at time t, holding the first and
// last keys outside their range. An empty curve samples to 0.
func (c Curve) Sample(t float64) float64 {
	n := len(c.Keys)
	switch {
	case n == 0:
		return 0
	case t <= c.Keys[0].Time:
		return c.Keys[0].Value
	case t >= c.Keys[n-1].Time:
		return c.Keys[n-1].Value
	}
	i := sort.Search(n, func(i int) bool { return c.Keys[i].Time > t })
	k0, k1 := c.Keys[i-1], c.Keys[i]
	u := (t - k0.Time) / (k1.Time - k0.Time)
	return k0.Value + (k1.Value-k0.Value)*u
}

// Duration returns the time of the last key.
func (c Curve) Duration() float64 {
	if len(c.Keys) == 0 {
		return 0
	}
	return c.Keys[len(c.Keys)-1].Time
}
