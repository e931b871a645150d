package types

// ============================================================================
//                              选项结构
// ============================================================================

// 指针字段为 nil 表示“未定义”，合并时由下层取值。

// DriveOptions 构造驱动器时传给驱动器工厂的选项
type DriveOptions struct {
	Sparse                   *bool  `json:"sparse,omitempty"`
	SecretKey                []byte `json:"secretKey,omitempty"`
	ContentStorageCacheSize  *int   `json:"contentStorageCacheSize,omitempty"`
	MetadataStorageCacheSize *int   `json:"metadataStorageCacheSize,omitempty"`
	Latest                   *bool  `json:"latest,omitempty"`

	// Extra 后端特有的选项，按键合并
	Extra map[string]any `json:"extra,omitempty"`
}

// SwarmOptions 加入网络时的选项
type SwarmOptions struct {
	Announce *bool `json:"announce,omitempty"`
	Lookup   *bool `json:"lookup,omitempty"`
	Upload   *bool `json:"upload,omitempty"`
	Download *bool `json:"download,omitempty"`
}

// DatOptions 加载或创建 dat 的完整选项
type DatOptions struct {
	Persist      *bool        `json:"persist,omitempty"`
	AutoSwarm    *bool        `json:"autoSwarm,omitempty"`
	DriveOptions DriveOptions `json:"driveOptions"`
	SwarmOptions SwarmOptions `json:"swarmOptions"`
}

// DefaultDatOptions 库级默认值
func DefaultDatOptions() DatOptions {
	return DatOptions{
		Persist:   Bool(false),
		AutoSwarm: Bool(true),
	}
}

// Bool 返回指向 b 的指针
func Bool(b bool) *bool { return &b }

// Int 返回指向 i 的指针
func Int(i int) *int { return &i }

// ============================================================================
//                              读取
// ============================================================================

// ShouldPersist 是否持久化，未定义时为 false
func (o DatOptions) ShouldPersist() bool { return boolOr(o.Persist, false) }

// ShouldAutoSwarm 是否自动加入网络，未定义时为 true
func (o DatOptions) ShouldAutoSwarm() bool { return boolOr(o.AutoSwarm, true) }

// IsSparse 是否稀疏下载
func (o DriveOptions) IsSparse() bool { return boolOr(o.Sparse, false) }

// ResolvedSwarmOptions 解析后的网络选项
type ResolvedSwarmOptions struct {
	Announce bool
	Lookup   bool
	Upload   bool
	Download bool
}

// Resolve 填充默认值，四项默认均为 true
func (o SwarmOptions) Resolve() ResolvedSwarmOptions {
	return ResolvedSwarmOptions{
		Announce: boolOr(o.Announce, true),
		Lookup:   boolOr(o.Lookup, true),
		Upload:   boolOr(o.Upload, true),
		Download: boolOr(o.Download, true),
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ============================================================================
//                              合并
// ============================================================================

// MergeDatOptions 合并默认值与覆盖值，返回新对象
//
// DriveOptions 与 SwarmOptions 各自按字段浅合并，覆盖值中已定义的字段胜出；
// 其余顶层字段在覆盖值中定义时胜出。两个输入都不会被修改。
// override 为 nil 时返回 defaults 的副本。
func MergeDatOptions(defaults DatOptions, override *DatOptions) DatOptions {
	if override == nil {
		return defaults.Clone()
	}
	return DatOptions{
		Persist:      mergeBool(defaults.Persist, override.Persist),
		AutoSwarm:    mergeBool(defaults.AutoSwarm, override.AutoSwarm),
		DriveOptions: defaults.DriveOptions.Merge(override.DriveOptions),
		SwarmOptions: defaults.SwarmOptions.Merge(override.SwarmOptions),
	}
}

// Merge 按字段合并，o 为底层，override 为上层
func (o DriveOptions) Merge(override DriveOptions) DriveOptions {
	out := DriveOptions{
		Sparse:                   mergeBool(o.Sparse, override.Sparse),
		ContentStorageCacheSize:  mergeInt(o.ContentStorageCacheSize, override.ContentStorageCacheSize),
		MetadataStorageCacheSize: mergeInt(o.MetadataStorageCacheSize, override.MetadataStorageCacheSize),
		Latest:                   mergeBool(o.Latest, override.Latest),
		SecretKey:                cloneBytes(o.SecretKey),
	}
	if override.SecretKey != nil {
		out.SecretKey = cloneBytes(override.SecretKey)
	}
	if len(o.Extra) > 0 || len(override.Extra) > 0 {
		out.Extra = make(map[string]any, len(o.Extra)+len(override.Extra))
		for k, v := range o.Extra {
			out.Extra[k] = v
		}
		for k, v := range override.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Merge 按字段合并，o 为底层，override 为上层
func (o SwarmOptions) Merge(override SwarmOptions) SwarmOptions {
	return SwarmOptions{
		Announce: mergeBool(o.Announce, override.Announce),
		Lookup:   mergeBool(o.Lookup, override.Lookup),
		Upload:   mergeBool(o.Upload, override.Upload),
		Download: mergeBool(o.Download, override.Download),
	}
}

// Clone 深拷贝
func (o DatOptions) Clone() DatOptions {
	return DatOptions{
		Persist:      cloneBool(o.Persist),
		AutoSwarm:    cloneBool(o.AutoSwarm),
		DriveOptions: o.DriveOptions.Clone(),
		SwarmOptions: o.SwarmOptions.Clone(),
	}
}

// Clone 深拷贝
func (o DriveOptions) Clone() DriveOptions {
	return DriveOptions{}.Merge(o)
}

// Clone 深拷贝
func (o SwarmOptions) Clone() SwarmOptions {
	return SwarmOptions{}.Merge(o)
}

func mergeBool(base, over *bool) *bool {
	if over != nil {
		return cloneBool(over)
	}
	return cloneBool(base)
}

func mergeInt(base, over *int) *int {
	v := base
	if over != nil {
		v = over
	}
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	b := *p
	return &b
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
