package opengl

// ── Mesh pipelines ────────────────────────────────────────────────────────────

const pbrVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;

uniform mat4 mvp;
uniform mat4 model;
uniform mat4 lightSpace;

out vec4 fragColor;
out vec3 fragNormal;
out vec2 fragUV;
out vec3 fragWorldPos;
out vec4 fragLightSpacePos;

void main() {
    vec4 worldPos     = model * vec4(inPosition, 1.0);
    gl_Position       = mvp * vec4(inPosition, 1.0);
    fragColor         = inColor;
    fragNormal        = mat3(model) * inNormal;
    fragUV            = inUV;
    fragWorldPos      = worldPos.xyz;
    fragLightSpacePos = lightSpace * vec4(inPosition, 1.0);
}
` + "\x00"

// pbrFragBody is compiled twice; the shadowed variant prepends
// "#define HAS_SHADOWS".
const pbrFragBody = `
in vec4 fragColor;
in vec3 fragNormal;
in vec2 fragUV;
in vec3 fragWorldPos;
in vec4 fragLightSpacePos;

out vec4 outColor;

#define MAX_POINT_LIGHTS 4
uniform int   pointLightCount;
uniform vec3  pointLightPos[MAX_POINT_LIGHTS];
uniform vec3  pointLightColor[MAX_POINT_LIGHTS];
uniform float pointLightIntensity[MAX_POINT_LIGHTS];
uniform float attenuation;
uniform vec3  ambientColor;
uniform vec3  cameraPos;

uniform vec4  matBaseColor;
uniform float matMetallic;
uniform float matRoughness;
uniform vec3  matEmissive;
uniform float matNormalScale;
uniform float matOcclusionStrength;

// Texture units: base=0, shadow=1, normal=2, metallicRoughness=3,
// emissive=4, occlusion=5, diffuseEnv=6, specular=7/8, brdf=9.
uniform sampler2D baseColorTex;
uniform bool      hasBaseColorTex;
uniform sampler2D normalTex;
uniform bool      hasNormalTex;
uniform sampler2D metallicRoughnessTex;
uniform bool      hasMetallicRoughnessTex;
uniform sampler2D emissiveTex;
uniform bool      hasEmissiveTex;
uniform sampler2D occlusionTex;
uniform bool      hasOcclusionTex;

uniform samplerCube diffuseEnv;
uniform samplerCube specularEnv;
uniform samplerCube specularEnvNext;
uniform float       skyInterpolation;
uniform sampler2D   brdfLUT;
uniform vec2        iblScale;

#ifdef HAS_SHADOWS
uniform sampler2DShadow shadowMap;
uniform float           shadowTexel;

float calcShadow() {
    vec3 p = fragLightSpacePos.xyz / fragLightSpacePos.w;
    if (p.z > 1.0) return 1.0;
    float shadow = 0.0;
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            shadow += texture(shadowMap, vec3(p.xy + vec2(float(x), float(y)) * shadowTexel, p.z - 0.002));
        }
    }
    return shadow / 9.0;
}
#endif

const float PI = 3.14159265359;

float DistributionGGX(vec3 N, vec3 H, float roughness) {
    float a  = roughness * roughness;
    float a2 = a * a;
    float NdH = max(dot(N, H), 0.0);
    float d   = NdH * NdH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}

float GeometrySchlickGGX(float cosTheta, float roughness) {
    float r = roughness + 1.0;
    float k = (r * r) / 8.0;
    return cosTheta / (cosTheta * (1.0 - k) + k);
}

float GeometrySmith(float NdV, float NdL, float roughness) {
    return GeometrySchlickGGX(NdV, roughness) * GeometrySchlickGGX(NdL, roughness);
}

vec3 FresnelSchlick(float cosTheta, vec3 F0) {
    return F0 + (1.0 - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

vec3 FresnelSchlickRoughness(float cosTheta, vec3 F0, float roughness) {
    return F0 + (max(vec3(1.0 - roughness), F0) - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

vec3 evalPBR(vec3 N, vec3 V, vec3 L, vec3 rad, vec3 albedo, float metallic, float roughness, vec3 F0) {
    float NdL = max(dot(N, L), 0.0);
    if (NdL <= 0.0) return vec3(0.0);

    vec3  H   = normalize(V + L);
    float NdV = max(dot(N, V), 0.0);

    float D = DistributionGGX(N, H, roughness);
    float G = GeometrySmith(NdV, NdL, roughness);
    vec3  F = FresnelSchlick(max(dot(H, V), 0.0), F0);

    vec3 kD       = (vec3(1.0) - F) * (1.0 - metallic);
    vec3 specular = D * G * F / max(4.0 * NdV * NdL, 0.001);

    return (kD * albedo / PI + specular) * rad * NdL;
}

// Normal mapping without tangents: cotangent frame from screen derivatives.
vec3 perturbNormal(vec3 N, vec3 P, vec2 uv) {
    vec3 t = texture(normalTex, uv).rgb * 2.0 - 1.0;
    t.xy *= matNormalScale;
    vec3 dp1 = dFdx(P);
    vec3 dp2 = dFdy(P);
    vec2 duv1 = dFdx(uv);
    vec2 duv2 = dFdy(uv);
    vec3 dp2perp = cross(dp2, N);
    vec3 dp1perp = cross(N, dp1);
    vec3 T = dp2perp * duv1.x + dp1perp * duv2.x;
    vec3 B = dp2perp * duv1.y + dp1perp * duv2.y;
    float invmax = inversesqrt(max(dot(T, T), dot(B, B)));
    return normalize(mat3(T * invmax, B * invmax, N) * t);
}

void main() {
    vec3 N = normalize(fragNormal);
    if (hasNormalTex) {
        N = perturbNormal(N, fragWorldPos, fragUV);
    }
    vec3 V = normalize(cameraPos - fragWorldPos);

    vec4 baseColor = fragColor * matBaseColor;
    if (hasBaseColorTex) {
        baseColor *= texture(baseColorTex, fragUV);
    }

    float metallic  = matMetallic;
    float roughness = matRoughness;
    if (hasMetallicRoughnessTex) {
        vec4 mr = texture(metallicRoughnessTex, fragUV);
        roughness *= mr.g;
        metallic  *= mr.b;
    }
    roughness = clamp(roughness, 0.04, 1.0);

    vec3 albedo = baseColor.rgb;
    vec3 F0     = mix(vec3(0.04), albedo, metallic);
    float NdV   = max(dot(N, V), 0.0);

    float shadowFactor = 1.0;
#ifdef HAS_SHADOWS
    shadowFactor = calcShadow();
#endif

    vec3 color = vec3(0.0);
    for (int i = 0; i < pointLightCount && i < MAX_POINT_LIGHTS; i++) {
        vec3  toLight = pointLightPos[i] - fragWorldPos;
        float dist    = length(toLight);
        float atten   = 1.0 / (1.0 + attenuation * dist * dist);
        vec3  rad     = pointLightColor[i] * pointLightIntensity[i] * atten;
        // The first light is the engine glow, the one casting the shadow map.
        if (i == 0) rad *= shadowFactor;
        color += evalPBR(N, V, normalize(toLight), rad, albedo, metallic, roughness, F0);
    }

    vec3 F_ibl = FresnelSchlickRoughness(NdV, F0, roughness);
    vec3 kD    = (vec3(1.0) - F_ibl) * (1.0 - metallic);
    vec3 diffuseIBL = texture(diffuseEnv, N).rgb * albedo * kD;

    vec3 R = reflect(-V, N);
    vec3 envSpecular = mix(texture(specularEnv, R).rgb, texture(specularEnvNext, R).rgb, skyInterpolation);
    vec2 brdf = texture(brdfLUT, vec2(NdV, 1.0 - roughness)).rg;
    vec3 specularIBL = envSpecular * (F_ibl * brdf.x + brdf.y);

    vec3 ambient = ambientColor * albedo * (1.0 - metallic) * 0.2;
    vec3 ibl = diffuseIBL * iblScale.x + specularIBL * iblScale.y;
    if (hasOcclusionTex) {
        float ao = texture(occlusionTex, fragUV).r;
        ibl = mix(ibl, ibl * ao, matOcclusionStrength);
    }
    color += ambient + ibl;

    vec3 emissive = matEmissive;
    if (hasEmissiveTex) {
        emissive *= texture(emissiveTex, fragUV).rgb;
    }
    color += emissive;

    outColor = vec4(pow(color, vec3(1.0 / 2.2)), baseColor.a);
}
`

const (
	pbrFragSrc         = "#version 410 core\n" + pbrFragBody + "\x00"
	pbrShadowedFragSrc = "#version 410 core\n#define HAS_SHADOWS\n" + pbrFragBody + "\x00"
)

const depthVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 lightMVP;
void main() {
    gl_Position = lightMVP * vec4(inPosition, 1.0);
}
` + "\x00"

const depthFragSrc = `
#version 410 core
void main() {}
` + "\x00"

const unlitVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 3) in vec4 inColor;
uniform mat4 mvp;
out vec4 fragColor;
void main() {
    fragColor   = inColor;
    gl_Position = mvp * vec4(inPosition, 1.0);
}
` + "\x00"

const unlitFragSrc = `
#version 410 core
in vec4 fragColor;
out vec4 outColor;
void main() {
    outColor = fragColor;
}
` + "\x00"

// ── Skybox ────────────────────────────────────────────────────────────────────

// skyVertSrc forces depth to the far plane with the xyww trick.
const skyVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

uniform mat4 skyVP;

out vec3 fragDir;

void main() {
    fragDir = inPosition;
    vec4 pos = skyVP * vec4(inPosition, 1.0);
    gl_Position = pos.xyww;
}
` + "\x00"

const skyFragSrc = `
#version 410 core
in vec3 fragDir;
out vec4 outColor;

uniform samplerCube current;
uniform samplerCube next;
uniform float blend;

void main() {
    vec3 d = normalize(fragDir);
    outColor = vec4(mix(texture(current, d).rgb, texture(next, d).rgb, blend), 1.0);
}
` + "\x00"

// faceVertSrc is a fullscreen triangle from gl_VertexID.
const faceVertSrc = `
#version 410 core
out vec2 fragST;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragST      = pos[gl_VertexID];
}
` + "\x00"

// faceFragSrc shades one cubemap face: five octaves of gradient noise over
// the direction, shifted by the viewer position, with a sparse star layer.
// Row 0 of the target is t = -1, matching the CPU generator.
const faceFragSrc = `
#version 410 core
in vec2 fragST;
out vec4 outColor;

uniform vec3  faceMajor;
uniform vec3  faceU;
uniform vec3  faceV;
uniform vec3  viewerPos;
uniform float noiseScale;
uniform float parallax;
uniform float starScale;

vec3 hash3(vec3 p) {
    p = vec3(dot(p, vec3(127.1, 311.7, 74.7)),
             dot(p, vec3(269.5, 183.3, 246.1)),
             dot(p, vec3(113.5, 271.9, 124.6)));
    return -1.0 + 2.0 * fract(sin(p) * 43758.5453123);
}

float gradientNoise(vec3 p) {
    vec3 i = floor(p);
    vec3 f = fract(p);
    vec3 u = f * f * (3.0 - 2.0 * f);
    return mix(mix(mix(dot(hash3(i + vec3(0,0,0)), f - vec3(0,0,0)),
                       dot(hash3(i + vec3(1,0,0)), f - vec3(1,0,0)), u.x),
                   mix(dot(hash3(i + vec3(0,1,0)), f - vec3(0,1,0)),
                       dot(hash3(i + vec3(1,1,0)), f - vec3(1,1,0)), u.x), u.y),
               mix(mix(dot(hash3(i + vec3(0,0,1)), f - vec3(0,0,1)),
                       dot(hash3(i + vec3(1,0,1)), f - vec3(1,0,1)), u.x),
                   mix(dot(hash3(i + vec3(0,1,1)), f - vec3(0,1,1)),
                       dot(hash3(i + vec3(1,1,1)), f - vec3(1,1,1)), u.x), u.y), u.z);
}

float fbm(vec3 p) {
    float sum = 0.0;
    float amp = 0.5;
    for (int i = 0; i < 5; i++) {
        sum += amp * gradientNoise(p);
        p   *= 2.0;
        amp *= 0.5;
    }
    return clamp(0.5 + sum, 0.0, 1.0);
}

void main() {
    vec3 d = normalize(faceMajor + fragST.x * faceU + fragST.y * faceV);
    vec3 offset = viewerPos * parallax;

    float v = fbm(d * noiseScale + offset);
    vec3 c = mix(vec3(0.01, 0.01, 0.04), vec3(0.25, 0.12, 0.45), smoothstep(0.35, 0.75, v));
    c = mix(c, vec3(0.45, 0.6, 0.9), smoothstep(0.7, 0.95, v) * 0.5);

    float s = fbm(d * noiseScale * starScale + offset);
    float star = smoothstep(0.9, 0.95, s) * s;
    outColor = vec4(mix(c, vec3(1.0), clamp(star, 0.0, 1.0)), 1.0);
}
` + "\x00"
