package loader

// argKind distinguishes where a block's argument comes from in the
// wire format: an "inputs" entry (a literal or a child block
// reference) or a "fields" entry (a plain dropdown/field value).
type argKind int

const (
	argInput argKind = iota
	argField
)

type argSpec struct {
	kind argKind
	name string
}

// blockSpec names, for one opcode, the ordered wire-format keys this
// loader reads to build a program.Block's Args in order. Opcodes
// absent from this table are unknown to the engine and become noop
// blocks; the set mirrors exactly what pkg/primitives registers.
type blockSpec struct {
	args []argSpec
}

func in(name string) argSpec    { return argSpec{kind: argInput, name: name} }
func field(name string) argSpec { return argSpec{kind: argField, name: name} }

var blockSpecs = map[string]blockSpec{
	"motion_movesteps":         {[]argSpec{in("STEPS")}},
	"motion_turnright":         {[]argSpec{in("DEGREES")}},
	"motion_turnleft":          {[]argSpec{in("DEGREES")}},
	"motion_pointindirection":  {[]argSpec{in("DIRECTION")}},
	"motion_pointtowards":      {[]argSpec{in("TOWARDS")}},
	"motion_pointtowards_menu": {[]argSpec{field("TOWARDS")}},
	"motion_gotoxy":            {[]argSpec{in("X"), in("Y")}},
	"motion_goto":              {[]argSpec{in("TO")}},
	"motion_goto_menu":         {[]argSpec{field("TO")}},
	"motion_glidesecstoxy":     {[]argSpec{in("SECS"), in("X"), in("Y")}},
	"motion_glideto":           {[]argSpec{in("SECS"), in("TO")}},
	"motion_glideto_menu":      {[]argSpec{field("TO")}},
	"motion_changexby":         {[]argSpec{in("DX")}},
	"motion_setx":              {[]argSpec{in("X")}},
	"motion_changeyby":         {[]argSpec{in("DY")}},
	"motion_sety":              {[]argSpec{in("Y")}},
	"motion_ifonedgebounce":    {nil},
	"motion_setrotationstyle":  {[]argSpec{field("STYLE")}},
	"motion_xposition":         {nil},
	"motion_yposition":         {nil},
	"motion_direction":         {nil},

	"looks_sayforsecs":             {[]argSpec{in("MESSAGE"), in("SECS")}},
	"looks_say":                    {[]argSpec{in("MESSAGE")}},
	"looks_thinkforsecs":           {[]argSpec{in("MESSAGE"), in("SECS")}},
	"looks_think":                  {[]argSpec{in("MESSAGE")}},
	"looks_show":                   {nil},
	"looks_hide":                   {nil},
	"looks_switchcostumeto":        {[]argSpec{in("COSTUME")}},
	"looks_costume":                {[]argSpec{field("COSTUME")}},
	"looks_nextcostume":            {nil},
	"looks_switchbackdropto":       {[]argSpec{in("BACKDROP")}},
	"looks_backdrops":              {[]argSpec{field("BACKDROP")}},
	"looks_changesizeby":           {[]argSpec{in("CHANGE")}},
	"looks_setsizeto":              {[]argSpec{in("SIZE")}},
	"looks_gotofrontback":          {[]argSpec{field("FRONT_BACK")}},
	"looks_goforwardbackwardlayers": {[]argSpec{field("FORWARD_BACKWARD"), in("NUM")}},
	"looks_costumenumbername":      {[]argSpec{in("NUMBER_NAME")}},
	"looks_costumenumbernamemenu":  {[]argSpec{field("NUMBER_NAME")}},
	"looks_backdropnumbername":     {[]argSpec{in("NUMBER_NAME")}},
	"looks_backdropnumbernamemenu": {[]argSpec{field("NUMBER_NAME")}},
	"looks_size":                   {nil},

	"event_whenflagclicked":        {nil},
	"event_whenkeypressed":         {[]argSpec{field("KEY_OPTION")}},
	"event_whenthisspriteclicked":  {nil},
	"event_whenbackdropswitchesto": {[]argSpec{field("BACKDROP")}},
	"event_whenbroadcastreceived":  {[]argSpec{field("BROADCAST_OPTION")}},
	"event_broadcast":              {[]argSpec{in("BROADCAST_INPUT")}},
	"event_broadcastandwait":       {[]argSpec{in("BROADCAST_INPUT")}},
	"event_broadcast_menu":         {[]argSpec{field("BROADCAST_OPTION")}},

	"control_wait":              {[]argSpec{in("DURATION")}},
	"control_repeat":            {[]argSpec{in("TIMES"), in("SUBSTACK")}},
	"control_forever":           {[]argSpec{in("SUBSTACK")}},
	"control_if":                {[]argSpec{in("CONDITION"), in("SUBSTACK")}},
	"control_if_else":           {[]argSpec{in("CONDITION"), in("SUBSTACK"), in("SUBSTACK2")}},
	"control_wait_until":        {[]argSpec{in("CONDITION")}},
	"control_repeat_until":      {[]argSpec{in("CONDITION"), in("SUBSTACK")}},
	"control_while":             {[]argSpec{in("CONDITION"), in("SUBSTACK")}},
	"control_for_each":          {[]argSpec{field("VARIABLE"), in("VALUE"), in("SUBSTACK")}},
	"control_stop":              {[]argSpec{field("STOP_OPTION")}},
	"control_start_as_clone":    {nil},
	"control_create_clone_of":      {[]argSpec{in("CLONE_OPTION")}},
	"control_create_clone_of_menu": {[]argSpec{field("CLONE_OPTION")}},
	"control_delete_this_clone": {nil},
	"control_get_counter":       {nil},
	"control_incr_counter":      {nil},
	"control_clear_counter":     {nil},
	"control_all_at_once":       {[]argSpec{in("SUBSTACK")}},

	"sensing_distanceto":     {[]argSpec{in("DISTANCETOMENU")}},
	"sensing_distancetomenu": {[]argSpec{field("DISTANCETOMENU")}},
	"sensing_askandwait":     {[]argSpec{in("QUESTION")}},
	"sensing_answer":         {nil},
	"sensing_timer":          {nil},
	"sensing_resettimer":     {nil},
	"sensing_of":             {[]argSpec{field("PROPERTY"), in("OBJECT")}},
	"sensing_of_object_menu": {[]argSpec{field("OBJECT")}},
	"sensing_current":        {[]argSpec{field("CURRENTMENU")}},
	"sensing_dayssince2000":  {nil},
	"sensing_username":       {nil},
	"sensing_userid":         {nil},

	"operator_add":        {[]argSpec{in("NUM1"), in("NUM2")}},
	"operator_subtract":   {[]argSpec{in("NUM1"), in("NUM2")}},
	"operator_multiply":   {[]argSpec{in("NUM1"), in("NUM2")}},
	"operator_divide":     {[]argSpec{in("NUM1"), in("NUM2")}},
	"operator_random":     {[]argSpec{in("FROM"), in("TO")}},
	"operator_lt":         {[]argSpec{in("OPERAND1"), in("OPERAND2")}},
	"operator_equals":     {[]argSpec{in("OPERAND1"), in("OPERAND2")}},
	"operator_gt":         {[]argSpec{in("OPERAND1"), in("OPERAND2")}},
	"operator_and":        {[]argSpec{in("OPERAND1"), in("OPERAND2")}},
	"operator_or":         {[]argSpec{in("OPERAND1"), in("OPERAND2")}},
	"operator_not":        {[]argSpec{in("OPERAND")}},
	"operator_join":       {[]argSpec{in("STRING1"), in("STRING2")}},
	"operator_letter_of":  {[]argSpec{in("LETTER"), in("STRING")}},
	"operator_contains":   {[]argSpec{in("STRING1"), in("STRING2")}},
	"operator_length":     {[]argSpec{in("STRING")}},
	"operator_mod":        {[]argSpec{in("NUM1"), in("NUM2")}},
	"operator_round":      {[]argSpec{in("NUM")}},
	"operator_mathop":     {[]argSpec{field("OPERATOR"), in("NUM")}},

	"data_variable":          {[]argSpec{field("VARIABLE")}},
	"data_setvariableto":     {[]argSpec{field("VARIABLE"), in("VALUE")}},
	"data_changevariableby":  {[]argSpec{field("VARIABLE"), in("VALUE")}},
	"data_listcontents":      {[]argSpec{field("LIST")}},
	"data_addtolist":         {[]argSpec{in("ITEM"), field("LIST")}},
	"data_deleteoflist":      {[]argSpec{in("INDEX"), field("LIST")}},
	"data_deletealloflist":   {[]argSpec{field("LIST")}},
	"data_insertatlist":      {[]argSpec{in("ITEM"), in("INDEX"), field("LIST")}},
	"data_replaceitemoflist": {[]argSpec{in("INDEX"), field("LIST"), in("ITEM")}},
	"data_itemoflist":        {[]argSpec{in("INDEX"), field("LIST")}},
	"data_lengthoflist":      {[]argSpec{field("LIST")}},
	"data_itemnumoflist":     {[]argSpec{field("LIST"), in("ITEM")}},
	"data_listcontainsitem":  {[]argSpec{field("LIST"), in("ITEM")}},

	// procedures_call, procedures_call_return, and the argument
	// reporters are filled from their mutation/owner metadata instead
	// of this table; the definition markers and procedures_return are
	// ordinary blocks.
	"procedures_definition":        {nil},
	"procedures_return_definition": {nil},
	"procedures_return":            {[]argSpec{in("VALUE")}},
}
