package cw

// Client ids the tracker and session controller react to.
const (
	ItemSaradominBanner = 4037
	ItemZamorakBanner   = 4039
	ItemExplosivePotion = 4045
	ItemBarricade       = 4053
	ItemBucketOfWater   = 1929

	ItemCastleWarsBracelet3 = 11079
	ItemCastleWarsBracelet2 = 11081
	ItemCastleWarsBracelet1 = 11083

	ObjectSaradominStandardDropped = 4900
	ObjectZamorakStandardDropped   = 4901

	NPCSaraBarricade       = 5722
	NPCSaraBarricadeTinded = 5723
	NPCZamBarricade        = 5724
	NPCZamBarricadeTinded  = 5725
	NPCLanthus             = 1958

	AnimationIceBarrage      = 1979
	AnimationDragonSpearSpec = 1064
	AnimationZamHastaSpec    = 8184

	GraphicIceBarrageHit = 369
	GraphicSplash        = 85
)

// Widget and variable names as sent by the host bridge.
const (
	WidgetTimeRemainingSara = "cw_time_remaining_sara"
	WidgetTimeRemainingZam  = "cw_time_remaining_zam"

	VarSaraScore = "cw_sara_score"
	VarZamScore  = "cw_zam_score"
	VarGameMins  = "cw_game_mins"
)

// Skill names.
const (
	SkillMagic     = "MAGIC"
	SkillHitpoints = "HITPOINTS"
)

// Chat and menu text.
const (
	FrozenMessage      = "You have been frozen!"
	MenuOptionCapture  = "Capture"
	MenuTargetTindCade = "Tinderbox -> Barricade"
)

// WaitingRegionIDs are the lobby regions where the next-game countdown is shown.
var WaitingRegionIDs = map[int]struct{}{
	9776: {},
	9620: {},
}

// IsCastleWarsBracelet reports whether itemID is a charged Castle Wars bracelet.
func IsCastleWarsBracelet(itemID int) bool {
	switch itemID {
	case ItemCastleWarsBracelet3, ItemCastleWarsBracelet2, ItemCastleWarsBracelet1:
		return true
	}
	return false
}
