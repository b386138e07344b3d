package config

// mergeConfigs merges override configuration into base. Non-zero override
// values win; sections present only in base are kept.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}

	result.Storage = mergeStorage(result.Storage, override.Storage)
	result.Build = mergeBuild(result.Build, override.Build)
	result.Estimator = mergeEstimator(result.Estimator, override.Estimator)
	result.Waste = mergeWaste(result.Waste, override.Waste)
	if override.Planning != nil && len(override.Planning.Patterns) > 0 {
		result.Planning = &PlanningConfig{Patterns: override.Planning.Patterns}
	}
	result.Server = mergeServer(result.Server, override.Server)
	result.Watch = mergeWatch(result.Watch, override.Watch)
	result.Agents = mergeAgents(result.Agents, override.Agents)

	if override.Extensions != nil {
		merged := make(map[string]interface{}, len(result.Extensions))
		for k, v := range result.Extensions {
			merged[k] = v
		}
		for key, value := range override.Extensions {
			// Same-key maps merge one level deep; anything else is replaced.
			if baseMap, ok := merged[key].(map[string]interface{}); ok {
				if overrideMap, ok := value.(map[string]interface{}); ok {
					mergedMap := make(map[string]interface{}, len(baseMap))
					for k, v := range baseMap {
						mergedMap[k] = v
					}
					for k, v := range overrideMap {
						mergedMap[k] = v
					}
					merged[key] = mergedMap
					continue
				}
			}
			merged[key] = value
		}
		result.Extensions = merged
	}

	return &result
}

func mergeStorage(base, override *StorageConfig) *StorageConfig {
	if override == nil {
		return base
	}
	if base == nil {
		c := *override
		return &c
	}
	result := *base
	if override.Backend != "" {
		result.Backend = override.Backend
	}
	if override.Root != "" {
		result.Root = override.Root
	}
	if override.SQLitePath != "" {
		result.SQLitePath = override.SQLitePath
	}
	return &result
}

func mergeBuild(base, override *BuildConfig) *BuildConfig {
	if override == nil {
		return base
	}
	if base == nil {
		c := *override
		return &c
	}
	result := *base
	if override.Parallel {
		result.Parallel = true
	}
	if override.MaxWorkers != 0 {
		result.MaxWorkers = override.MaxWorkers
	}
	return &result
}

func mergeEstimator(base, override *EstimatorConfig) *EstimatorConfig {
	if override == nil {
		return base
	}
	if base == nil {
		c := *override
		return &c
	}
	result := *base
	if override.CharsPerToken != 0 {
		result.CharsPerToken = override.CharsPerToken
	}
	if override.CharsPerDiffLine != 0 {
		result.CharsPerDiffLine = override.CharsPerDiffLine
	}
	if override.BaseContextTokens != 0 {
		result.BaseContextTokens = override.BaseContextTokens
	}
	if len(override.ReadTools) > 0 {
		result.ReadTools = override.ReadTools
	}
	return &result
}

func mergeWaste(base, override *WasteConfig) *WasteConfig {
	if override == nil {
		return base
	}
	if base == nil {
		c := *override
		return &c
	}
	result := *base
	if len(override.ReadOnlyAgents) > 0 {
		result.ReadOnlyAgents = override.ReadOnlyAgents
	}
	if override.ContextAgent != "" {
		result.ContextAgent = override.ContextAgent
	}
	if override.AbandonedMaxMessages != 0 {
		result.AbandonedMaxMessages = override.AbandonedMaxMessages
	}
	if override.ExcessiveMessages != 0 {
		result.ExcessiveMessages = override.ExcessiveMessages
	}
	if override.WastedMinMessages != 0 {
		result.WastedMinMessages = override.WastedMinMessages
	}
	if override.LowEfficiencyRatio != 0 {
		result.LowEfficiencyRatio = override.LowEfficiencyRatio
	}
	if override.OutputHeavyMinTokens != 0 {
		result.OutputHeavyMinTokens = override.OutputHeavyMinTokens
	}
	if override.LongRunning != "" {
		result.LongRunning = override.LongRunning
	}
	if override.DuplicateContextMax != 0 {
		result.DuplicateContextMax = override.DuplicateContextMax
	}
	if override.ToolDominanceMinTokens != 0 {
		result.ToolDominanceMinTokens = override.ToolDominanceMinTokens
	}
	if override.ToolDominanceShare != 0 {
		result.ToolDominanceShare = override.ToolDominanceShare
	}
	if override.ExpensiveToolTokens != 0 {
		result.ExpensiveToolTokens = override.ExpensiveToolTokens
	}
	if override.MaxDelegationDepth != 0 {
		result.MaxDelegationDepth = override.MaxDelegationDepth
	}
	if override.MaxHumanMessages != 0 {
		result.MaxHumanMessages = override.MaxHumanMessages
	}
	return &result
}

func mergeServer(base, override *ServerConfig) *ServerConfig {
	if override == nil || override.Addr == "" {
		return base
	}
	return &ServerConfig{Addr: override.Addr}
}

func mergeWatch(base, override *WatchConfig) *WatchConfig {
	if override == nil {
		return base
	}
	if base == nil {
		c := *override
		return &c
	}
	result := *base
	if override.Interval != "" {
		result.Interval = override.Interval
	}
	if override.Debounce != "" {
		result.Debounce = override.Debounce
	}
	return &result
}

func mergeAgents(base, override *AgentsConfig) *AgentsConfig {
	if override == nil {
		return base
	}
	if base == nil {
		c := *override
		return &c
	}
	result := *base
	if override.Dir != "" {
		result.Dir = override.Dir
	}
	if override.Opencode != "" {
		result.Opencode = override.Opencode
	}
	return &result
}
